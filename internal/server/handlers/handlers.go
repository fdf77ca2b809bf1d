package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/config"
	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/rules"
	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/service/excel"
)

// Handlers API处理器。
// 文件只以字节流形式在内存缓存中进出，各步骤调用纯函数完成转换
type Handlers struct {
	maxUploadSize int64
	rulesPath     string

	files   map[string]*storedFile
	filesMu sync.RWMutex
}

type storedFile struct {
	FileName string
	Bytes    []byte
}

// NewHandlers 创建处理器
func NewHandlers(cfg *config.AppConfig) *Handlers {
	return &Handlers{
		maxUploadSize: cfg.Upload.MaxSizeMB * 1024 * 1024,
		rulesPath:     cfg.Rules.Path,
		files:         make(map[string]*storedFile),
	}
}

// Response 通用响应
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// RegisterRoutes 注册路由
func (h *Handlers) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.UploadFile)
	rg.POST("/master/generate", h.GenerateMaster)
	rg.POST("/equipment/populate", h.PopulateEquipmentNames)
	rg.POST("/parameters/populate", h.PopulateParameters)
	rg.POST("/engineering/populate", h.PopulateEngineeringInputs)
	rg.POST("/split", h.SplitWorkbook)
	rg.GET("/files/:fileId/download", h.DownloadFile)
}

// UploadFile 上传Excel文件
func (h *Handlers) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, 1001, "请上传文件")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		errorResponse(c, 1003, fmt.Sprintf("文件过大，最大支持%dMB", h.maxUploadSize/(1024*1024)))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		errorResponse(c, 1002, "仅支持 .xlsx 和 .xlsm 格式")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, 1002, "读取文件失败")
		return
	}

	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		errorResponse(c, 1002, "文件解析失败: "+err.Error())
		return
	}
	sheets := wb.GetSheetList()
	wb.Close()

	fileID := h.store(header.Filename, content)

	success(c, gin.H{
		"fileId":   fileID,
		"fileName": header.Filename,
		"fileSize": header.Size,
		"sheets":   sheets,
	})
}

// GenerateMaster 第一步：生成主表骨架
func (h *Handlers) GenerateMaster(c *gin.Context) {
	var req struct {
		FileID string `json:"fileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	raw, ok := h.lookup(req.FileID)
	if !ok {
		errorResponse(c, 2001, "文件不存在或已过期")
		return
	}

	data, fileName, skipped, err := excel.GenerateMaster(bytes.NewReader(raw.Bytes))
	if err != nil {
		errorResponse(c, 3001, "生成主表失败: "+err.Error())
		return
	}
	h.respondResult(c, fileName, data, skipped)
}

// PopulateEquipmentNames 第二步：写入设备名
func (h *Handlers) PopulateEquipmentNames(c *gin.Context) {
	master, streamtable, ok := h.twoFiles(c)
	if !ok {
		return
	}

	data, fileName, skipped, err := excel.PopulateEquipmentNames(master, streamtable)
	if err != nil {
		errorResponse(c, 3002, "写入设备名失败: "+err.Error())
		return
	}
	h.respondResult(c, fileName, data, skipped)
}

// PopulateParameters 第三步：参数解析引擎。规则表每次运行重新加载
func (h *Handlers) PopulateParameters(c *gin.Context) {
	master, streamtable, ok := h.twoFiles(c)
	if !ok {
		return
	}

	table, err := rules.LoadFile(h.rulesPath)
	if err != nil {
		errorResponse(c, 4001, "规则表加载失败: "+err.Error())
		return
	}

	data, fileName, skipped, err := excel.PopulateParameters(master, streamtable, table)
	if err != nil {
		errorResponse(c, 4002, "参数解析失败: "+err.Error())
		return
	}
	h.respondResult(c, fileName, data, skipped)
}

// PopulateEngineeringInputs 第四步：回填工程输入值
func (h *Handlers) PopulateEngineeringInputs(c *gin.Context) {
	var req struct {
		MasterFileID     string `json:"masterFileId"`
		DatasheetsFileID string `json:"datasheetsFileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	master, ok := h.lookup(req.MasterFileID)
	if !ok {
		errorResponse(c, 2001, "主表文件不存在或已过期")
		return
	}
	datasheets, ok := h.lookup(req.DatasheetsFileID)
	if !ok {
		errorResponse(c, 2001, "数据表文件不存在或已过期")
		return
	}

	data, fileName, skipped, err := excel.PopulateEngineeringInputs(bytes.NewReader(master.Bytes), bytes.NewReader(datasheets.Bytes))
	if err != nil {
		errorResponse(c, 3003, "回填工程输入失败: "+err.Error())
		return
	}
	h.respondResult(c, fileName, data, skipped)
}

// SplitWorkbook 按 sheet 拆分并打包
func (h *Handlers) SplitWorkbook(c *gin.Context) {
	var req struct {
		FileID string `json:"fileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	master, ok := h.lookup(req.FileID)
	if !ok {
		errorResponse(c, 2001, "文件不存在或已过期")
		return
	}

	data, fileName, skipped, err := excel.SplitWorkbook(bytes.NewReader(master.Bytes))
	if err != nil {
		errorResponse(c, 3004, "拆分失败: "+err.Error())
		return
	}
	h.respondResult(c, fileName, data, skipped)
}

// DownloadFile 下载缓存中的结果文件
func (h *Handlers) DownloadFile(c *gin.Context) {
	fileID := c.Param("fileId")
	f, ok := h.lookup(fileID)
	if !ok {
		errorResponse(c, 2001, "文件不存在或已过期")
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if strings.HasSuffix(f.FileName, ".zip") {
		contentType = "application/zip"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, f.FileName))
	c.Data(http.StatusOK, contentType, f.Bytes)
}

// twoFiles 取 主表 + 流表 两个缓存文件的公共逻辑
func (h *Handlers) twoFiles(c *gin.Context) (master, streamtable io.Reader, ok bool) {
	var req struct {
		MasterFileID string `json:"masterFileId"`
		StreamFileID string `json:"streamFileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 1001, "参数错误")
		return nil, nil, false
	}

	m, found := h.lookup(req.MasterFileID)
	if !found {
		errorResponse(c, 2001, "主表文件不存在或已过期")
		return nil, nil, false
	}
	s, found := h.lookup(req.StreamFileID)
	if !found {
		errorResponse(c, 2001, "流表文件不存在或已过期")
		return nil, nil, false
	}
	return bytes.NewReader(m.Bytes), bytes.NewReader(s.Bytes), true
}

// respondResult 缓存结果文件并返回其 id、文件名和跳过清单
func (h *Handlers) respondResult(c *gin.Context, fileName string, data []byte, skipped []string) {
	fileID := h.store(fileName, data)
	success(c, gin.H{
		"fileId":   fileID,
		"fileName": fileName,
		"skipped":  skipped,
	})
}

func (h *Handlers) store(fileName string, data []byte) string {
	fileID := uuid.New().String()
	h.filesMu.Lock()
	h.files[fileID] = &storedFile{FileName: fileName, Bytes: data}
	h.filesMu.Unlock()
	return fileID
}

func (h *Handlers) lookup(fileID string) (*storedFile, bool) {
	h.filesMu.RLock()
	defer h.filesMu.RUnlock()
	f, ok := h.files[fileID]
	return f, ok
}

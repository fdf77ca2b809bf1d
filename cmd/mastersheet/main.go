package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/config"
	"github.com/asfiya-m/EquipmentDatasheetsGeneration/internal/server"
)

var (
	port      = flag.Int("port", 0, "服务端口 (覆盖配置文件)")
	devMode   = flag.Bool("dev", false, "开发模式")
	rulesPath = flag.String("rules", "", "参数规则表 param_mapping.yaml 路径 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Master Equipment Datasheet 自动化工具")
	fmt.Println("==========================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
	}

	// 命令行参数覆盖配置
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *rulesPath != "" {
		cfg.Rules.Path = *rulesPath
	}

	srv := server.NewServer(cfg)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("服务启动于 http://localhost%s", addr)
	if err := srv.Run(addr); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}

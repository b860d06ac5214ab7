// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"weaver-rag-go/internal/config"
	"weaver-rag-go/internal/handler"
	"weaver-rag-go/internal/index"
	"weaver-rag-go/internal/middleware"
	"weaver-rag-go/internal/model"
	"weaver-rag-go/internal/pipeline"
	"weaver-rag-go/internal/repository"
	"weaver-rag-go/internal/service"
	"weaver-rag-go/pkg/database"
	"weaver-rag-go/pkg/embedding"
	"weaver-rag-go/pkg/kafka"
	"weaver-rag-go/pkg/llm"
	"weaver-rag-go/pkg/log"
	"weaver-rag-go/pkg/storage"
	"weaver-rag-go/pkg/tasks"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储和消息队列
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.Project{}, &model.Document{}, &model.DocumentChunk{}); err != nil {
		log.Fatalf("数据库表结构迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	projectRepo := repository.NewProjectRepository(database.DB)
	documentRepo := repository.NewDocumentRepository(database.DB)
	chunkRepo := repository.NewChunkRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	taskStore := tasks.NewRedisStore(database.RDB)
	builder := index.NewBuilder(cfg.Index.RootDir, chunkRepo, embeddingClient)

	projectService := service.NewProjectService(projectRepo, documentRepo, chunkRepo, builder)
	documentService := service.NewDocumentService(projectRepo, documentRepo, chunkRepo, builder, taskStore)
	ragService := service.NewRAGService(projectRepo, chunkRepo, embeddingClient, llmClient, cfg.Index.RootDir)

	// 6. 初始化文档处理管道 (Processor)
	processor := pipeline.NewProcessor(
		projectRepo,
		documentRepo,
		chunkRepo,
		builder,
		embeddingClient,
		taskStore,
	)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		projects := apiV1.Group("/projects")
		{
			projectHandler := handler.NewProjectHandler(projectService)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)

			documentHandler := handler.NewDocumentHandler(documentService)
			projects.POST("/:id/documents", documentHandler.UploadDocument)
			projects.GET("/:id/documents", documentHandler.ListDocuments)

			indexHandler := handler.NewIndexHandler(builder)
			projects.POST("/:id/index/rebuild", indexHandler.RebuildIndex)
			projects.GET("/:id/index/stats", indexHandler.IndexStats)
		}

		documents := apiV1.Group("/documents")
		{
			documentHandler := handler.NewDocumentHandler(documentService)
			documents.GET("/:docId", documentHandler.GetDocument)
			documents.PUT("/:docId/active", documentHandler.SetDocumentActive)
			documents.DELETE("/:docId", documentHandler.DeleteDocument)
			documents.GET("/:docId/status", documentHandler.GetProcessingStatus)
		}

		tasksGroup := apiV1.Group("/tasks")
		{
			documentHandler := handler.NewDocumentHandler(documentService)
			tasksGroup.GET("/:taskId", documentHandler.GetTaskStatus)
		}

		chat := apiV1.Group("/chat")
		{
			chatHandler := handler.NewChatHandler(ragService)
			chat.POST("/query", chatHandler.Query)
			chat.POST("/fallback", chatHandler.Fallback)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}
	log.Info("服务已退出")
}

// 从命令行导入测试文档（与教师端上传使用同一解析器）
//
// 整篇文档解析成功后才会写入数据库，任何一行有误都不会导入。
//
// 用法: go run scripts/import_tests.go [-config configs/config.yaml] <file.docx|file.txt>...

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/repository"
	"school_quiz_backend/internal/service"
	"school_quiz_backend/pkg/database"
	"school_quiz_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Database config.DatabaseConfig `yaml:"database"`
	Quiz     config.QuizConfig     `yaml:"quiz"`
}

func main() {
	configFile := flag.String("config", "configs/config.yaml", "配置文件路径")
	dryRun := flag.Bool("dry-run", false, "只检查文档格式，不写入数据库")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("用法: import_tests [-config path] [-dry-run] <file>...")
	}

	data, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	fc := fileConfig{Quiz: config.QuizConfig{
		FreeTextPolicy:   config.FreeTextNeverCorrect,
		DefaultPassScore: 50,
		DefaultQuestions: 10,
		MaxImportSizeMB:  10,
	}}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if fc.Database.Charset == "" {
		fc.Database.Charset = "utf8mb4"
	}
	fc.Database.ParseTime = true

	logger.InitLogger("release")
	defer logger.Log.Sync()

	cfg := &config.Config{Database: fc.Database, Quiz: fc.Quiz}

	var store service.TestStore
	if !*dryRun {
		db, err := database.InitDB(&cfg.Database, false)
		if err != nil {
			log.Fatalf("数据库连接失败: %v", err)
		}
		store = repository.NewTestRepository(db)
	} else {
		store = dryRunStore{}
	}

	importer := service.NewImportService(store, nil, cfg)
	failed := false
	for _, path := range flag.Args() {
		if err := importFile(importer, path); err != nil {
			log.Printf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// dryRunStore 只接收解析结果，不访问数据库
type dryRunStore struct {
	service.TestStore
}

func (dryRunStore) CreateTests(ctx context.Context, tests []*model.Test) error {
	return nil
}

func importFile(importer *service.ImportService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := importer.Import(context.Background(), 0, filepath.Base(path), f)
	if err != nil {
		return err
	}
	for _, t := range res.Tests {
		log.Printf("%s: 测试 %q，%d 道题 (id=%d)", path, t.Title, t.QuestionCount, t.ID)
	}
	return nil
}

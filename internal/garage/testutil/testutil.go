package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/config"
	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_garage"
	JWTSecret  = "garage-test-jwt-secret"
	JWTIssuer  = "auto-repair"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB 为每个测试创建独立 schema，测试结束后删除
// 数据库不可达时跳过测试
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.GetEnvOrDefault("DB_HOST", "127.0.0.1"),
		config.GetEnvOrDefault("DB_PORT", "5432"),
		config.GetEnvOrDefault("DB_USER", "garage"),
		config.GetEnvOrDefault("DB_PASSWORD", "garage123"),
		config.GetEnvOrDefault("DB_NAME", "garage"),
	)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Skipf("create test schema: %v", err)
	}
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path 写入 DSN，连接池中的所有连接都使用测试 schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			if sqlClean, _ := cleanDB.DB(); sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string, roles ...string) string {
	if roles == nil {
		roles = []string{}
	}
	token, _ := middleware.IssueToken(JWTSecret, JWTIssuer, userID, name, roles, time.Hour)
	return token
}

// DefaultTestToken 服务顾问身份
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Advisor", middleware.RoleAdvisor)
}

// ManagerTestToken 店长身份
func ManagerTestToken() string {
	return GenerateTestToken("test-manager-001", "Test Manager", middleware.RoleManager)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}
	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	return serve(r, req, token)
}

// DoRaw 以原始请求体发送请求
func DoRaw(r *gin.Engine, method, path, contentType string, body []byte, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return serve(r, req, token)
}

func serve(r *gin.Engine, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Data 取出响应中的 data 对象
func Data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := ParseResponse(w)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %s", w.Body.String())
	}
	return data
}

// SeedDemo 写入桌面版演示数据：VIP 客户 C001、车辆 VIN123、技师 E100、顾问 E200
func SeedDemo(t *testing.T, db *gorm.DB) {
	t.Helper()
	records := []interface{}{
		&entity.Customer{ID: "C001", Name: "Alice", Phone: "1380000", Level: entity.CustomerLevelVIP},
		&entity.Vehicle{VIN: "VIN123", Plate: "渝A88888", Brand: "Toyota", Model: "Corolla", Year: 2020, OwnerID: "C001"},
		ptr(entity.NewTechnician("E100", "Bob", 120)),
		ptr(entity.NewServiceAdvisor("E200", "Eve", 500)),
	}
	for _, r := range records {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("Failed to seed %T: %v", r, err)
		}
	}
}

// SeedParts 直接写入配件表
func SeedParts(t *testing.T, db *gorm.DB, parts ...entity.Part) {
	t.Helper()
	for i := range parts {
		if err := db.Create(&parts[i]).Error; err != nil {
			t.Fatalf("Failed to seed part %s: %v", parts[i].ID, err)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}

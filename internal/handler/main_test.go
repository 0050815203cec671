package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-service/internal/model"
	"recipe-service/pkg/config"
	"recipe-service/pkg/database"
	"recipe-service/pkg/storage"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testPassword = "testpass123"

// setupTest wires the full route table against a fresh in-memory database
// and a temporary media root
func setupTest(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every session sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db

	require.NoError(t, storage.Initialize(t.TempDir()))

	cfg := &config.Config{
		Token: config.TokenConfig{ExpirationHours: 24},
		Media: config.MediaConfig{URLPrefix: "/media"},
	}
	InitUserHandler(cfg)
	InitRecipeHandler(cfg)

	e := echo.New()
	RegisterRoutes(e)
	return e
}

func createUser(t *testing.T, email string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{
		Email:    model.NormalizeEmail(email),
		Password: string(hash),
		Name:     "Test User",
		IsActive: true,
	}
	require.NoError(t, database.GetDB().Create(&user).Error)
	return user
}

func issueTestToken(t *testing.T, user model.User) string {
	t.Helper()
	token := model.AuthToken{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, database.GetDB().Create(&token).Error)
	return token.Token
}

func timePast() time.Time {
	return time.Now().Add(-time.Hour)
}

func doJSON(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

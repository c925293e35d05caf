// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	"github.com/finance-tracker/ledgersync/internal/infra/server/router"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/ledgersync/internal/integration/lock"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
	"github.com/finance-tracker/ledgersync/internal/integration/synclog"
	"github.com/finance-tracker/ledgersync/test/integration/mock"
)

type testContext struct {
	server   *httptest.Server
	client   *http.Client
	headers  map[string]string
	response *response

	localDb  *mock.Db
	remoteDb *mock.Db
	seeder   *persistence.LocalSeeder
	timeMock *mock.Time
	auditBuf *bytes.Buffer

	currentUser  *entity.User
	accounts     map[string]*entity.Account
	categories   map[string]*entity.Category
	remoteUserID int64
}

type response struct {
	status int
	body   any
	raw    []byte
}

// nopCloser lets the audit log write into an in-memory buffer.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func localTables() []mock.Table {
	return []mock.Table{
		{Name: "users", Model: &model.UserModel{}},
		{Name: "accounts", Model: &model.AccountModel{}},
		{Name: "categories", Model: &model.CategoryModel{}},
		{Name: "transactions", Model: &model.TransactionModel{}},
	}
}

func remoteTables() []mock.Table {
	return []mock.Table{
		{Name: "users", Model: &model.RemoteUserModel{}},
		{Name: "accounts", Model: &model.RemoteAccountModel{}},
		{Name: "categories", Model: &model.RemoteCategoryModel{}},
		{Name: "transactions", Model: &model.RemoteTransactionModel{}},
	}
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
	})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	test := &testContext{
		client:   &http.Client{Timeout: 10 * time.Second},
		localDb:  mock.NewDb("ledgersync_local", localTables()),
		remoteDb: mock.NewDb("ledgersync_remote", remoteTables()),
		timeMock: mock.NewTime(),
	}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, test.before()
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if test.server != nil {
			test.server.Close()
		}
		return ctx, nil
	})

	// Background steps
	ctx.Given(`^the API server is running$`, test.theAPIServerIsRunning)
	ctx.Given(`^the current date is "([^"]*)"$`, test.theCurrentDateIs)

	registerSyncSteps(ctx, test)

	// Request steps
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)

	// Response assertion steps
	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response should be JSON$`, test.theResponseShouldBeJSON)
	ctx.Then(`^the response should contain "([^"]*)"$`, test.theResponseShouldContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)

	// Database assertion steps
	ctx.Then(`^the (local|remote) db should contain (\d+) objects in the "([^"]*)" table$`, test.theDbShouldContainObjectsInTheTable)
	ctx.Then(`^the (local|remote) db should contain (\d+) objects in "([^"]*)" with the values$`, test.theDbShouldContainObjectsInWithTheValues)
}

func (t *testContext) before() error {
	t.headers = make(map[string]string)
	t.response = nil
	t.currentUser = nil
	t.accounts = make(map[string]*entity.Account)
	t.categories = make(map[string]*entity.Category)
	t.remoteUserID = 0
	t.auditBuf = &bytes.Buffer{}
	t.timeMock = mock.NewTime()
	t.seeder = persistence.NewLocalSeeder(t.localDb.DbConn)

	if err := t.localDb.ClearDB(); err != nil {
		return err
	}
	if err := t.remoteDb.ClearDB(); err != nil {
		return err
	}
	return mock.ClearRedis(mock.NewRedis())
}

func (t *testContext) startServer() {
	audit := synclog.NewWithWriter(nopCloser{t.auditBuf})

	runSyncUseCase := remotesync.NewRunSyncUseCase(
		persistence.NewLocalStore(t.localDb.DbConn),
		persistence.NewRemoteStore(t.remoteDb.DbConn),
		lock.NewRedisLocker(mock.NewRedis(), time.Minute),
		audit.Logger,
		remotesync.Config{
			MaxCategoryPasses: remotesync.DefaultMaxCategoryPasses,
			Now:               t.timeMock.Now,
		},
	)

	healthController := controller.NewHealthController(
		func() bool { return ping(t.localDb.DbConn) },
		func() bool { return ping(t.remoteDb.DbConn) },
	)
	syncController := controller.NewSyncController(runSyncUseCase)

	r := router.NewRouter(healthController, syncController, middleware.NewRateLimiterWithConfig(1000, time.Minute))
	t.server = httptest.NewServer(r.Setup("test"))
}

func ping(db *gorm.DB) bool {
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

func (t *testContext) theAPIServerIsRunning() error {
	if t.server == nil {
		t.startServer()
	}
	return nil
}

func (t *testContext) theCurrentDateIs(date string) error {
	parsed, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return err
	}
	t.timeMock.SetCurrentTime(parsed)
	return nil
}

func (t *testContext) iSendARequestTo(method, path string) error {
	return t.executeRequest(method, path, nil)
}

func (t *testContext) executeRequest(method, path string, payload []byte) error {
	if t.server == nil {
		return fmt.Errorf("test server is not running")
	}

	req, err := http.NewRequest(method, t.server.URL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	t.response = &response{status: resp.StatusCode, raw: raw}
	if len(raw) > 0 {
		var body any
		if err := json.Unmarshal(raw, &body); err == nil {
			t.response.body = body
		}
	}
	return nil
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return fmt.Errorf("no response received")
	}
	if t.response.status != expectedStatus {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedStatus, t.response.status, string(t.response.raw))
	}
	return nil
}

func (t *testContext) theResponseShouldBeJSON() error {
	if t.response == nil || t.response.body == nil {
		return fmt.Errorf("response is not valid JSON")
	}
	return nil
}

func (t *testContext) theResponseShouldContain(expected string) error {
	if t.response == nil {
		return fmt.Errorf("no response received")
	}
	if !strings.Contains(string(t.response.raw), expected) {
		return fmt.Errorf("response does not contain '%s'. Body: %s", expected, string(t.response.raw))
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expectedValue string) error {
	if t.response == nil {
		return fmt.Errorf("no response received")
	}

	value := getFieldValue(t.response.body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response. Body: %s", field, string(t.response.raw))
	}

	actual := fmt.Sprintf("%v", value)
	if actual != expectedValue {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expectedValue, actual)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	if t.response == nil {
		return fmt.Errorf("no response received")
	}
	if getFieldValue(t.response.body, field) == nil {
		return fmt.Errorf("field '%s' not found in response", field)
	}
	return nil
}

func (t *testContext) dbFor(side string) *mock.Db {
	if side == "remote" {
		return t.remoteDb
	}
	return t.localDb
}

func (t *testContext) theDbShouldContainObjectsInTheTable(side string, quantity int, table string) error {
	db := t.dbFor(side)
	if entity, ok := db.GetModel(table); ok {
		entityType := reflect.TypeOf(entity).Elem()
		entitySlice := reflect.MakeSlice(reflect.SliceOf(entityType), 0, 0)
		entitySlicePtr := reflect.New(entitySlice.Type())
		entitySlicePtr.Elem().Set(entitySlice)

		result := db.DbConn.Unscoped().Find(entitySlicePtr.Interface())
		if result.Error != nil {
			return result.Error
		}

		count := entitySlicePtr.Elem().Len()
		if count != quantity {
			return fmt.Errorf("expected %d objects in %s '%s', got %d", quantity, side, table, count)
		}
		return nil
	}
	return fmt.Errorf("table '%s' not found in %s models", table, side)
}

func (t *testContext) theDbShouldContainObjectsInWithTheValues(side string, quantity int, table string, content *godog.DocString) error {
	var criteria map[string]any
	if err := json.Unmarshal([]byte(content.Content), &criteria); err != nil {
		return err
	}

	db := t.dbFor(side)
	if entity, ok := db.GetModel(table); ok {
		entityType := reflect.TypeOf(entity).Elem()
		entitySlice := reflect.MakeSlice(reflect.SliceOf(entityType), 0, 0)
		entitySlicePtr := reflect.New(entitySlice.Type())
		entitySlicePtr.Elem().Set(entitySlice)

		query := db.DbConn.Unscoped()
		for key, value := range criteria {
			if value == nil {
				query = query.Where(fmt.Sprintf("%s IS NULL", key))
				continue
			}
			query = query.Where(fmt.Sprintf("%s = ?", key), value)
		}

		result := query.Find(entitySlicePtr.Interface())
		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		count := entitySlicePtr.Elem().Len()
		if count != quantity {
			return fmt.Errorf("expected %d objects in %s '%s' with criteria %v, got %d", quantity, side, table, criteria, count)
		}
		return nil
	}
	return fmt.Errorf("table '%s' not found in %s models", table, side)
}

func getFieldValue(object any, dotSeparatedField string) any {
	if object == nil {
		return nil
	}

	var objectMap map[string]any
	switch v := object.(type) {
	case map[string]any:
		objectMap = v
	default:
		objectJSON, _ := json.Marshal(object)
		if err := json.Unmarshal(objectJSON, &objectMap); err != nil {
			return nil
		}
	}

	fields := strings.Split(dotSeparatedField, ".")
	var field any = objectMap

	for _, currentField := range fields {
		if field == nil {
			return nil
		}

		if i, err := strconv.Atoi(currentField); err == nil {
			if arr, ok := field.([]any); ok && i < len(arr) {
				field = arr[i]
			} else {
				return nil
			}
		} else {
			if m, ok := field.(map[string]any); ok {
				field = m[currentField]
			} else {
				return nil
			}
		}
	}

	return field
}

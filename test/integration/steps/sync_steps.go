package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
	"github.com/finance-tracker/ledgersync/test/integration/mock"
)

func registerSyncSteps(ctx *godog.ScenarioContext, test *testContext) {
	// Local setup steps
	ctx.Given(`^a local user "([^"]*)" exists$`, test.aLocalUserExists)
	ctx.Given(`^the user has an account "([^"]*)" of type "([^"]*)"$`, test.theUserHasAnAccountOfType)
	ctx.Given(`^the user has a category "([^"]*)" of type "([^"]*)"$`, test.theUserHasACategoryOfType)
	ctx.Given(`^the user has a category "([^"]*)" of type "([^"]*)" under "([^"]*)"$`, test.theUserHasACategoryOfTypeUnder)
	ctx.Given(`^the user has a category "([^"]*)" of type "([^"]*)" under a missing parent$`, test.theUserHasACategoryUnderAMissingParent)
	ctx.Given(`^the user has a transaction "([^"]*)" of "([^"]*)" on "([^"]*)" in "([^"]*)" under "([^"]*)"$`, test.theUserHasATransaction)

	// Remote setup steps
	ctx.Given(`^the remote store already has the user$`, test.theRemoteStoreAlreadyHasTheUser)
	ctx.Given(`^the remote store already has an account "([^"]*)" of type "([^"]*)" for the user$`, test.theRemoteStoreAlreadyHasAnAccount)
	ctx.Given(`^the remote "(accounts|categories)" row "([^"]*)" is deleted$`, test.theRemoteRowIsDeleted)
	ctx.Given(`^another sync run holds the lock for the user$`, test.anotherSyncRunHoldsTheLock)

	// Trigger steps
	ctx.When(`^I trigger a sync for the user$`, test.iTriggerASyncForTheUser)

	// Sync assertion steps
	ctx.Then(`^the sync errors should contain "([^"]*)"$`, test.theSyncErrorsShouldContain)
	ctx.Then(`^the remote category "([^"]*)" should have parent "([^"]*)"$`, test.theRemoteCategoryShouldHaveParent)
	ctx.Then(`^the sync log should contain "([^"]*)"$`, test.theSyncLogShouldContain)
}

func (t *testContext) requireUser() (*entity.User, error) {
	if t.currentUser == nil {
		return nil, fmt.Errorf("no local user in this scenario")
	}
	return t.currentUser, nil
}

func (t *testContext) aLocalUserExists(email string) error {
	user := &entity.User{Email: email, DisplayName: strings.Split(email, "@")[0]}
	if err := t.seeder.CreateUser(context.Background(), user); err != nil {
		return err
	}
	t.currentUser = user
	return nil
}

func (t *testContext) theUserHasAnAccountOfType(name, accountType string) error {
	user, err := t.requireUser()
	if err != nil {
		return err
	}

	account := entity.NewAccount(user.ID, name, entity.AccountType(accountType), "USD", decimal.Zero)
	if err := t.seeder.CreateAccount(context.Background(), account); err != nil {
		return err
	}
	t.accounts[name] = account
	return nil
}

func (t *testContext) createCategory(name, categoryType string, parentID *int64) error {
	user, err := t.requireUser()
	if err != nil {
		return err
	}

	category := entity.NewCategory(user.ID, parentID, name, entity.CategoryType(categoryType))
	if err := t.seeder.CreateCategory(context.Background(), category); err != nil {
		return err
	}
	t.categories[name] = category
	return nil
}

func (t *testContext) theUserHasACategoryOfType(name, categoryType string) error {
	return t.createCategory(name, categoryType, nil)
}

func (t *testContext) theUserHasACategoryOfTypeUnder(name, categoryType, parent string) error {
	parentCategory, ok := t.categories[parent]
	if !ok {
		return fmt.Errorf("parent category '%s' not seeded", parent)
	}
	return t.createCategory(name, categoryType, &parentCategory.ID)
}

func (t *testContext) theUserHasACategoryUnderAMissingParent(name, categoryType string) error {
	missing := int64(999999)
	return t.createCategory(name, categoryType, &missing)
}

func (t *testContext) theUserHasATransaction(clientUUID, amount, date, accountName, categoryName string) error {
	user, err := t.requireUser()
	if err != nil {
		return err
	}

	account, ok := t.accounts[accountName]
	if !ok {
		return fmt.Errorf("account '%s' not seeded", accountName)
	}
	category, ok := t.categories[categoryName]
	if !ok {
		return fmt.Errorf("category '%s' not seeded", categoryName)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	txnDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return err
	}

	txnType := entity.TransactionTypeExpense
	if category.Type == entity.CategoryTypeIncome {
		txnType = entity.TransactionTypeIncome
	}

	txn := entity.NewTransaction(user.ID, account.ID, category.ID, txnType, value, txnDate, nil)
	txn.ClientUUID = clientUUID
	return t.seeder.CreateTransaction(context.Background(), txn)
}

func (t *testContext) theRemoteStoreAlreadyHasTheUser() error {
	user, err := t.requireUser()
	if err != nil {
		return err
	}

	remoteUser := &model.RemoteUserModel{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := t.remoteDb.DbConn.Create(remoteUser).Error; err != nil {
		return err
	}
	t.remoteUserID = remoteUser.ID
	return nil
}

func (t *testContext) theRemoteStoreAlreadyHasAnAccount(name, accountType string) error {
	if t.remoteUserID == 0 {
		return fmt.Errorf("the remote user must exist first")
	}

	return t.remoteDb.DbConn.Create(&model.RemoteAccountModel{
		OwnerID:        t.remoteUserID,
		Name:           name,
		Type:           accountType,
		Currency:       "USD",
		OpeningBalance: decimal.Zero,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}).Error
}

func (t *testContext) theRemoteRowIsDeleted(table, name string) error {
	remoteModel, ok := t.remoteDb.GetModel(table)
	if !ok {
		return fmt.Errorf("table '%s' not found in remote models", table)
	}

	result := t.remoteDb.DbConn.Where("name = ?", name).Delete(remoteModel)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no remote %s row named '%s'", table, name)
	}
	return nil
}

func (t *testContext) anotherSyncRunHoldsTheLock() error {
	user, err := t.requireUser()
	if err != nil {
		return err
	}
	return mock.HoldKey(fmt.Sprintf("sync:lock:%d", user.ID))
}

func (t *testContext) iTriggerASyncForTheUser() error {
	user, err := t.requireUser()
	if err != nil {
		return err
	}
	return t.executeRequest("POST", fmt.Sprintf("/api/v1/owners/%d/sync", user.ID), nil)
}

func (t *testContext) theSyncErrorsShouldContain(expected string) error {
	if t.response == nil {
		return fmt.Errorf("no response received")
	}

	errs, ok := getFieldValue(t.response.body, "errors").([]any)
	if !ok {
		return fmt.Errorf("response has no errors list. Body: %s", string(t.response.raw))
	}
	for _, e := range errs {
		if s, ok := e.(string); ok && strings.Contains(s, expected) {
			return nil
		}
	}
	return fmt.Errorf("no sync error contains '%s': %v", expected, errs)
}

func (t *testContext) theRemoteCategoryShouldHaveParent(child, parent string) error {
	var childRow, parentRow model.RemoteCategoryModel
	if err := t.remoteDb.DbConn.Where("name = ?", child).First(&childRow).Error; err != nil {
		return fmt.Errorf("remote category '%s': %w", child, err)
	}
	if err := t.remoteDb.DbConn.Where("name = ?", parent).First(&parentRow).Error; err != nil {
		return fmt.Errorf("remote category '%s': %w", parent, err)
	}

	if childRow.ParentID == nil || *childRow.ParentID != parentRow.ID {
		return fmt.Errorf("expected '%s' to point at remote id %d, got %v", child, parentRow.ID, childRow.ParentID)
	}
	return nil
}

func (t *testContext) theSyncLogShouldContain(message string) error {
	for _, line := range strings.Split(strings.TrimSpace(t.auditBuf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["msg"] == message {
			return nil
		}
	}
	return fmt.Errorf("sync log has no '%s' entry", message)
}

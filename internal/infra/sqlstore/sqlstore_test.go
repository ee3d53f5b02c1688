package sqlstore

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

func TestOptions_DSN(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{
			name: "postgres",
			opts: Options{Dialect: DialectPostgres, Host: "localhost", Port: 5432, User: "dash", Password: "secret", Name: "finance"},
			want: "host=localhost port=5432 user=dash dbname=finance sslmode=disable password=secret",
		},
		{
			name: "mysql",
			opts: Options{Dialect: DialectMySQL, Host: "db", Port: 3306, User: "root", Password: "pw", Name: "finance"},
			want: "root:pw@tcp(db:3306)/finance?parseTime=true",
		},
		{
			name: "sqlite",
			opts: Options{Dialect: DialectSQLite, Path: "/tmp/finance.db"},
			want: "/tmp/finance.db",
		},
		{
			name:    "sqlite without path",
			opts:    Options{Dialect: DialectSQLite},
			wantErr: true,
		},
		{
			name:    "unknown dialect",
			opts:    Options{Dialect: "oracle"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.DSN()
			if (err != nil) != tt.wantErr {
				t.Fatalf("DSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransactionListRow_ToTransaction(t *testing.T) {
	row := transactionListRow{
		ID:              "t1",
		Date:            "2024-02-29",
		Name:            "Shell",
		Amount:          decimal.RequireFromString("-40.25"),
		Category:        "Gas",
		AccountName:     "Card",
		AccountNickname: "",
	}
	tx, err := row.toTransaction()
	if err != nil {
		t.Fatalf("toTransaction() error = %v", err)
	}
	if tx.Date != (civil.Date{Year: 2024, Month: time.February, Day: 29}) {
		t.Errorf("Date = %s", tx.Date)
	}
	if tx.Amount != -40.25 || tx.AccountName != "Card" || tx.Category != "Gas" {
		t.Errorf("tx = %+v", tx)
	}

	row.AccountNickname = "Travel card"
	if tx, _ := row.toTransaction(); tx.AccountName != "Travel card" {
		t.Errorf("AccountName = %q, want nickname", tx.AccountName)
	}
}

func TestTransactionListRow_BadDate(t *testing.T) {
	_, err := transactionListRow{ID: "t2", Date: "yesterday"}.toTransaction()
	var dataErr *transactions.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("toTransaction() error = %v, want DataError", err)
	}
	if !strings.Contains(err.Error(), "yesterday") {
		t.Errorf("error %q should mention the bad value", err)
	}
}

func TestNewTransactionModel(t *testing.T) {
	tx := transactions.Transaction{ID: "t3", Date: civil.Date{Year: 2024, Month: time.May, Day: 2}, Name: "Pay", Amount: 1500.5}
	m := newTransactionModel("a1", tx)
	if m.Date != "2024-05-02" || m.AccountID != "a1" {
		t.Errorf("model = %+v", m)
	}
	if !m.Amount.Equal(decimal.RequireFromString("1500.5")) {
		t.Errorf("Amount = %s", m.Amount)
	}
}

func TestAccountModelMapping(t *testing.T) {
	a := &accounts.Account{ID: "a1", ExternalID: "ext", ItemID: "i1", Name: "Checking", Type: accounts.TypeDepository, Subtype: "checking", Mask: "0000", Hidden: true}
	m := newAccountModel(a)
	back := accountListRow{
		ID: m.ID, ExternalAccountID: m.ExternalAccountID, ItemID: m.ItemID, Name: m.Name,
		Type: m.Type, Subtype: m.Subtype, Mask: m.Mask, Hidden: m.Hidden,
		InstitutionID: "ins_1", InstitutionName: "Bank",
	}.toAccount()
	if back.ID != a.ID || back.ExternalID != "ext" || back.Mask != "0000" || !back.Hidden {
		t.Errorf("account = %+v", back)
	}
	if back.Institution != "Bank" || back.InstitutionID != "ins_1" {
		t.Errorf("institution = %q / %q", back.Institution, back.InstitutionID)
	}
}

func TestAccountListColumnsFillRow(t *testing.T) {
	selected := make(map[string]bool)
	for _, col := range accountListColumns {
		name := col
		if i := strings.LastIndex(col, " AS "); i >= 0 {
			name = col[i+len(" AS "):]
		} else if i := strings.LastIndex(col, "."); i >= 0 {
			name = col[i+1:]
		}
		selected[name] = true
	}

	rt := reflect.TypeOf(accountListRow{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Anonymous || f.PkgPath != "" {
			t.Errorf("field %s is embedded or unexported and would not be scanned", f.Name)
			continue
		}
		if col := gorm.ToColumnName(f.Name); !selected[col] {
			t.Errorf("field %s has no selected column %q", f.Name, col)
		}
	}
	if len(selected) != rt.NumField() {
		t.Errorf("selected %d columns for %d fields", len(selected), rt.NumField())
	}
}

func TestModelsHaveTableNames(t *testing.T) {
	want := map[string]bool{"items": true, "accounts": true, "account_balances": true, "transactions": true}
	for _, m := range models() {
		tn, ok := m.(interface{ TableName() string })
		if !ok {
			t.Fatalf("%T has no TableName", m)
		}
		if !want[tn.TableName()] {
			t.Errorf("unexpected table %q", tn.TableName())
		}
		delete(want, tn.TableName())
	}
	if len(want) != 0 {
		t.Errorf("missing tables: %v", want)
	}
}

package pagination

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type entry struct {
	ID uint
	N  int
}

func setupDB(t *testing.T, rows int) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "page.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for i := 1; i <= rows; i++ {
		if err := db.Create(&entry{N: i}).Error; err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return db
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"3", 3},
		{" 2 ", 2},
		{"-4", -4},
		{"1.5", 1},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		number, pages, want int
	}{
		{1, 3, 1},
		{3, 3, 3},
		{4, 3, 3},
		{0, 3, 3},
		{-1, 3, 3},
		{1, 1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.number, tt.pages); got != tt.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tt.number, tt.pages, got, tt.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	db := setupDB(t, 25)
	query := db.Model(&entry{}).Order("n DESC")

	tests := []struct {
		name      string
		number    int
		wantNum   int
		wantFirst int
		wantLen   int
	}{
		{"first page", 1, 1, 25, 10},
		{"last page", 3, 3, 5, 5},
		{"past the end", 9, 3, 5, 5},
		{"below one", 0, 3, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate[entry](query, tt.number, 10)
			if err != nil {
				t.Fatalf("Paginate() error = %v", err)
			}
			if page.Number != tt.wantNum || page.NumPages != 3 || page.Total != 25 {
				t.Fatalf("page = %d/%d total %d", page.Number, page.NumPages, page.Total)
			}
			if len(page.Items) != tt.wantLen || page.Items[0].N != tt.wantFirst {
				t.Errorf("items len %d first %d, want len %d first %d", len(page.Items), page.Items[0].N, tt.wantLen, tt.wantFirst)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	db := setupDB(t, 0)
	page, err := Paginate[entry](db.Model(&entry{}), 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.NumPages != 1 || page.Number != 1 || len(page.Items) != 0 {
		t.Errorf("empty page = %+v", page)
	}
	if page.HasNext() || page.HasPrevious() {
		t.Error("empty page should have no neighbours")
	}
}

func TestPaginateScopesOnlyOnFetch(t *testing.T) {
	db := setupDB(t, 4)
	onlyEven := func(tx *gorm.DB) *gorm.DB { return tx.Where("n % 2 = 0") }
	page, err := Paginate[entry](db.Model(&entry{}).Order("n"), 1, 10, onlyEven)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 4 || len(page.Items) != 2 {
		t.Errorf("total %d items %d", page.Total, len(page.Items))
	}
}

package calendar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEaster(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
	}{
		{1818, time.March, 22},
		{1943, time.April, 25},
		{2000, time.April, 23},
		{2008, time.March, 23},
		{2018, time.April, 1},
		{2019, time.April, 21},
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2038, time.April, 25},
	}

	for _, tt := range tests {
		got := Easter(tt.year)
		if got.Month() != tt.month || got.Day() != tt.day {
			t.Errorf("Easter(%d) = %s, want %d-%02d", tt.year, got.Format("2006-01-02"), tt.month, tt.day)
		}
		if got.Weekday() != time.Sunday {
			t.Errorf("Easter(%d) = %s is a %v", tt.year, got.Format("2006-01-02"), got.Weekday())
		}
	}
}

func TestMovingFeasts(t *testing.T) {
	tests := []struct {
		name          string
		year          int
		thursdayMonth time.Month
		thursdayDay   int
		fridayMonth   time.Month
		fridayDay     int
	}{
		{"Easter April 1 crosses into March", 2018, time.March, 29, time.March, 30},
		{"Easter March 31", 2024, time.March, 28, time.March, 29},
		{"Easter April 20", 2025, time.April, 17, time.April, 18},
		{"Easter April 3 splits months", 2067, time.March, 31, time.April, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feasts := MovingFeasts(tt.year)
			if len(feasts) != 2 {
				t.Fatalf("MovingFeasts(%d) returned %d records, want 2", tt.year, len(feasts))
			}

			thursday, friday := feasts[0], feasts[1]
			if !thursday.SameDay(tt.thursdayDay, tt.thursdayMonth) {
				t.Errorf("Holy Thursday = %d/%d, want %d/%d", thursday.Day, thursday.Month, tt.thursdayDay, tt.thursdayMonth)
			}
			if !friday.SameDay(tt.fridayDay, tt.fridayMonth) {
				t.Errorf("Good Friday = %d/%d, want %d/%d", friday.Day, friday.Month, tt.fridayDay, tt.fridayMonth)
			}
			if thursday.Year != tt.year || friday.Year != tt.year {
				t.Errorf("feasts must be scoped to %d, got %d and %d", tt.year, thursday.Year, friday.Year)
			}
			if thursday.Kind != KindRegional || friday.Kind != KindNational {
				t.Errorf("kinds = %s/%s, want %s/%s", thursday.Kind, friday.Kind, KindRegional, KindNational)
			}
		})
	}
}

func TestActiveHolidays_StampsYear(t *testing.T) {
	holidays := ActiveHolidays(2025, DefaultCatalog(), nil, nil)

	if len(holidays) != len(DefaultCatalog())+2 {
		t.Fatalf("ActiveHolidays() returned %d records, want %d", len(holidays), len(DefaultCatalog())+2)
	}
	for _, h := range holidays {
		if h.Year != 2025 {
			t.Errorf("%s has year %d, want 2025", h.Description, h.Year)
		}
	}
	if DefaultCatalog()[0].Year != 0 {
		t.Error("ActiveHolidays() must not mutate the catalog")
	}
}

func TestActiveHolidays_Deletions(t *testing.T) {
	christmasThisYear := []Deletion{{Day: 25, Month: time.December, Year: 2024}}
	christmasAlways := []Deletion{{Day: 25, Month: time.December}}
	goodFriday2024 := []Deletion{{Day: 29, Month: time.March, Year: 2024}}

	tests := []struct {
		name      string
		year      int
		deletions []Deletion
		date      time.Time
		want      bool
	}{
		{"Year-scoped deletion hides that year", 2024, christmasThisYear, date(2024, 12, 25), false},
		{"Year-scoped deletion keeps next year", 2025, christmasThisYear, date(2025, 12, 25), true},
		{"Global deletion hides every year", 2024, christmasAlways, date(2024, 12, 25), false},
		{"Global deletion hides next year too", 2031, christmasAlways, date(2031, 12, 25), false},
		{"Moving feast can be deleted", 2024, goodFriday2024, date(2024, 3, 29), false},
		{"Unrelated holiday survives", 2024, christmasAlways, date(2024, 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewHolidaySet(ActiveHolidays(tt.year, DefaultCatalog(), nil, tt.deletions))
			if got := set.IsHoliday(tt.date); got != tt.want {
				t.Errorf("IsHoliday(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestActiveHolidays_CustomScope(t *testing.T) {
	custom := []Holiday{
		{Day: 2, Month: time.February, Description: "Candelaria", Kind: KindLocal},
		{Day: 7, Month: time.September, Description: "Fiesta local", Kind: KindLocal, Year: 2024},
	}

	h2024 := NewHolidaySet(ActiveHolidays(2024, nil, custom, nil))
	h2025 := NewHolidaySet(ActiveHolidays(2025, nil, custom, nil))

	if !h2024.IsHoliday(date(2024, 2, 2)) || !h2025.IsHoliday(date(2025, 2, 2)) {
		t.Error("global custom holiday must apply to every year")
	}
	if !h2024.IsHoliday(date(2024, 9, 7)) {
		t.Error("scoped custom holiday must apply to its year")
	}
	if h2025.IsHoliday(date(2025, 9, 7)) {
		t.Error("scoped custom holiday must not leak into other years")
	}
}

func TestActiveHolidays_NoDeduplication(t *testing.T) {
	custom := []Holiday{{Day: 25, Month: time.December, Description: "Navidad (local)", Kind: KindLocal}}

	count := 0
	for _, h := range ActiveHolidays(2024, DefaultCatalog(), custom, nil) {
		if h.SameDay(25, time.December) {
			count++
		}
	}
	if count != 2 {
		t.Errorf("found %d records on Dec 25, want 2", count)
	}
}

func TestRestoreDeletion(t *testing.T) {
	list := []Deletion{
		{Day: 25, Month: time.December, Year: 2024},
		{Day: 25, Month: time.December, Year: 2025},
		{Day: 1, Month: time.January},
	}

	t.Run("Year-scoped restore removes only that year", func(t *testing.T) {
		got := RestoreDeletion(list, 25, time.December, 2024)
		if len(got) != 2 || got[0].Year != 2025 {
			t.Errorf("RestoreDeletion() = %+v", got)
		}
	})

	t.Run("Unscoped restore removes every year", func(t *testing.T) {
		got := RestoreDeletion(list, 25, time.December, 0)
		if len(got) != 1 || got[0].Month != time.January {
			t.Errorf("RestoreDeletion() = %+v", got)
		}
	})

	t.Run("Restoring a never-deleted holiday is a no-op", func(t *testing.T) {
		got := RestoreDeletion(list, 6, time.December, 0)
		if len(got) != len(list) {
			t.Fatalf("RestoreDeletion() changed length to %d", len(got))
		}
		for i := range list {
			if got[i] != list[i] {
				t.Errorf("record %d = %+v, want %+v", i, got[i], list[i])
			}
		}
	})
}

func TestAddDeletion_NoDuplicates(t *testing.T) {
	d := Deletion{Day: 8, Month: time.December}
	list := AddDeletion(nil, d)
	list = AddDeletion(list, d)
	if len(list) != 1 {
		t.Errorf("AddDeletion() len = %d, want 1", len(list))
	}
}

func TestCustomMaintenance(t *testing.T) {
	var list []Holiday
	list = AddCustom(list, Holiday{Day: 3, Month: time.May, Description: "Cruz", Kind: KindLocal, Year: 2024})
	list = AddCustom(list, Holiday{Day: 3, Month: time.May, Description: "Cruz global", Kind: KindLocal})

	if got := RemoveCustom(list, 3, time.May, 2024); len(got) != 1 || got[0].Year != 0 {
		t.Errorf("RemoveCustom(2024) = %+v, want only the global record", got)
	}
	if got := RemoveCustom(list, 3, time.May, 0); len(got) != 1 || got[0].Year != 2024 {
		t.Errorf("RemoveCustom(0) = %+v, want only the 2024 record", got)
	}

	edited := EditCustom(list, 3, time.May, 2024, Holiday{Day: 3, Month: time.May, Description: "Santa Cruz", Kind: KindRegional})
	found, ok := FindCustom(edited, 3, time.May, 2030)
	if !ok || found.Year != 0 {
		t.Fatalf("FindCustom() = %+v, %v", found, ok)
	}
	if len(edited) != 2 {
		t.Errorf("EditCustom() len = %d, want 2", len(edited))
	}
}

func TestDeleteCustom(t *testing.T) {
	list := []Holiday{
		{Day: 3, Month: time.May, Description: "Cruz", Kind: KindLocal, Year: 2024},
		{Day: 3, Month: time.May, Description: "Cruz global", Kind: KindLocal},
		{Day: 4, Month: time.May, Description: "Otro", Kind: KindLocal},
	}

	if got := DeleteCustom(list, 3, time.May, 0); len(got) != 1 || got[0].Day != 4 {
		t.Errorf("DeleteCustom(0) = %+v, want only May 4", got)
	}
	if got := DeleteCustom(list, 3, time.May, 2024); len(got) != 2 || got[0].Year != 0 {
		t.Errorf("DeleteCustom(2024) = %+v, want the global record and May 4", got)
	}
}

func TestActiveHolidays_YearDeletionHidesGlobalCustom(t *testing.T) {
	custom := []Holiday{{Day: 2, Month: time.February, Description: "Candelaria", Kind: KindLocal}}
	deletions := []Deletion{{Day: 2, Month: time.February, Year: 2025}}

	if NewHolidaySet(ActiveHolidays(2025, nil, custom, deletions)).IsHoliday(date(2025, 2, 2)) {
		t.Error("year-scoped deletion must hide a global custom holiday in that year")
	}
	if !NewHolidaySet(ActiveHolidays(2026, nil, custom, deletions)).IsHoliday(date(2026, 2, 2)) {
		t.Error("year-scoped deletion must not hide other years")
	}
	global := []Deletion{{Day: 2, Month: time.February}}
	if !NewHolidaySet(ActiveHolidays(2025, nil, custom, global)).IsHoliday(date(2025, 2, 2)) {
		t.Error("global deletions only apply to fixed and computed holidays")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"nacional", KindNational, false},
		{"National", KindNational, false},
		{"autonomico", KindRegional, false},
		{"regional", KindRegional, false},
		{"local", KindLocal, false},
		{"municipal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestFileCatalog_Load(t *testing.T) {
	content := strings.Join([]string{
		"# Fixed holidays",
		"01-01 nacional Año Nuevo",
		"30-05 autonomico Día de Canarias",
		"",
		"bad line",
		"32-01 local Out of range",
		"24-06 municipal Unknown kind",
		"29-02 local Leap only",
	}, "\n")

	path := filepath.Join(t.TempDir(), "holidays.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	fc := NewFileCatalog(path, zap.NewNop())
	if _, err := fc.FixedHolidays(); err == nil {
		t.Error("FixedHolidays() before Load() expected error")
	}
	if err := fc.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	holidays, err := fc.FixedHolidays()
	if err != nil {
		t.Fatalf("FixedHolidays() error = %v", err)
	}
	if len(holidays) != 3 {
		t.Fatalf("FixedHolidays() returned %d records, want 3: %+v", len(holidays), holidays)
	}
	if holidays[1].Description != "Día de Canarias" || holidays[1].Kind != KindRegional || holidays[1].Month != time.May {
		t.Errorf("second record = %+v", holidays[1])
	}
}

func TestCompositeCatalog_FallsBack(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	missing := NewFileCatalog(filepath.Join(t.TempDir(), "missing.txt"), logger)
	cc := NewCompositeCatalog(missing, BuiltinCatalog{}, logger)

	if err := cc.LoadPrimary(); err == nil {
		t.Error("LoadPrimary() expected error for missing file")
	}

	holidays, err := cc.FixedHolidays()
	if err != nil {
		t.Fatalf("FixedHolidays() error = %v", err)
	}
	if len(holidays) != len(DefaultCatalog()) {
		t.Errorf("FixedHolidays() returned %d records, want builtin %d", len(holidays), len(DefaultCatalog()))
	}
}

func TestHolidaySet_NilSafe(t *testing.T) {
	var set *HolidaySet
	if set.IsHoliday(date(2024, 1, 1)) {
		t.Error("nil set must contain no holidays")
	}
	if set.Len() != 0 {
		t.Error("nil set must be empty")
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

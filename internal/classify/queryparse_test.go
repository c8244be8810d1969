package classify

import (
	"reflect"
	"testing"
)

func TestParseDerivedQueryFields(t *testing.T) {
	tests := []struct {
		name   string
		method string
		want   []string
	}{
		{"simple find", "findByEmail", []string{"email"}},
		{"delete", "deleteByEmail", []string{"email"}},
		{"find all", "findAllByStatus", []string{"status"}},
		{"two fields and", "findByStatusAndEmail", []string{"status", "email"}},
		{"two fields or", "findByEmailOrPhone", []string{"email", "phone"}},
		{"comparison suffix", "findByAmountGreaterThan", []string{"amount"}},
		{"stacked suffix", "findByAmountGreaterThanEqual", []string{"amount"}},
		{"like suffix", "findByNameContaining", []string{"name"}},
		{"order by tail", "findByStatusOrderByCreatedAtDesc", []string{"status"}},
		{"top limit", "findTop10ByAmountLessThan", []string{"amount"}},
		{"exists", "existsByOrderNumber", []string{"orderNumber"}},
		{"count", "countByStatus", []string{"status"}},
		{"remove", "removeByEmailIgnoreCase", []string{"email"}},
		{"field containing Or letters", "findByOrderNumber", []string{"orderNumber"}},
		{"by id", "findById", []string{"id"}},
		{"not a query method", "save", nil},
		{"plain crud", "delete", nil},
		{"bare findAll", "findAll", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDerivedQueryFields(tt.method)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDerivedQueryFields(%q) = %v, want %v", tt.method, got, tt.want)
			}
		})
	}
}

func TestParseQueryWhereFields(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			"jpql equality",
			"SELECT o FROM Order o WHERE o.email = :email",
			[]string{"email"},
		},
		{
			"two conditions",
			"SELECT o FROM Order o WHERE o.status = :status AND o.total > :min",
			[]string{"status", "total"},
		},
		{
			"like",
			"select u from UserEntity u where u.username LIKE :pattern",
			[]string{"username"},
		},
		{
			"no where clause",
			"SELECT o FROM Order o",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQueryWhereFields(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQueryWhereFields(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestIsWriteQueryName(t *testing.T) {
	if !IsWriteQueryName("deleteByEmail") {
		t.Error("deleteByEmail should be a write query")
	}
	if IsWriteQueryName("findByEmail") {
		t.Error("findByEmail should not be a write query")
	}
}

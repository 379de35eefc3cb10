package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func strPtr(s string) *string { return &s }

func TestMemoryFilter(t *testing.T) {
	tests := []struct {
		name   string
		client *string
		caseID *string
		want   bson.D
	}{
		{"wildcard", nil, nil, bson.D{}},
		{"client only", strPtr("c1"), nil, bson.D{{Key: "client_id", Value: "c1"}}},
		{"case only", nil, strPtr("p1"), bson.D{{Key: "case_id", Value: "p1"}}},
		{"both", strPtr("c1"), strPtr("p1"), bson.D{{Key: "client_id", Value: "c1"}, {Key: "case_id", Value: "p1"}}},
		{"empty string is exact", strPtr(""), nil, bson.D{{Key: "client_id", Value: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, memoryFilter(tt.client, tt.caseID))
		})
	}
}

func TestRepositoriesImplementMemoryStore(t *testing.T) {
	var _ MemoryStore = (*PostgresMemoryRepository)(nil)
	var _ MemoryStore = (*MongoMemoryRepository)(nil)
	var _ MemoryStore = (*SQLiteMemoryRepository)(nil)
}

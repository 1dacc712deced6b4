package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseName(t *testing.T) {
	cases := []struct {
		uri, override, want string
	}{
		{"mongodb://localhost:27017", "", "clubhub"},
		{"mongodb://localhost:27017/", "", "clubhub"},
		{"mongodb://localhost:27017/social?replicaSet=rs0", "", "social"},
		{"mongodb+srv://u:p@cluster.example.net/prod?retryWrites=true", "", "prod"},
		{"mongodb://localhost:27017/social", "override", "override"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, databaseName(c.uri, c.override), c.uri)
	}
}

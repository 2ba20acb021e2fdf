package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnect_InvalidURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := Connect(ctx, "not-a-dsn")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestClose_NilPoolIsSafe(t *testing.T) {
	var d DB
	d.Close()
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
)

func TestAdmin_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := &model.Admin{Username: "root", PasswordHash: "hash"}
	if err := db.CreateAdmin(ctx, a); err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}
	if a.ID == "" {
		t.Fatal("CreateAdmin() did not set ID")
	}

	byID, err := db.GetAdmin(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAdmin() error = %v", err)
	}
	byName, err := db.GetAdminByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("GetAdminByUsername() error = %v", err)
	}
	if byID.ID != byName.ID || byName.PasswordHash != "hash" {
		t.Errorf("lookups disagree: %+v vs %+v", byID, byName)
	}
}

func TestAdmin_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_ = db.CreateAdmin(ctx, &model.Admin{Username: "root", PasswordHash: "h"})
	err := db.CreateAdmin(ctx, &model.Admin{Username: "root", PasswordHash: "h2"})
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("CreateAdmin() err = %v, want ErrDuplicate", err)
	}
}

func TestAdmin_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetAdminByUsername(context.Background(), "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetAdminByUsername() err = %v, want ErrNotFound", err)
	}
}

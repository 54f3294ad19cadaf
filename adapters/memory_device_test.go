package adapters

import (
	"context"
	"testing"

	"github.com/noa-assistant/server/domain/entities"
)

func TestMemoryDeviceRepositoryCreateAndGet(t *testing.T) {
	repo := NewMemoryDeviceRepository()
	ctx := context.Background()

	device := &entities.Device{
		SerialNumber: "NOA-001",
		SecretKey:    "s3cret",
		Platform:     "darwin",
	}
	if err := repo.Create(ctx, device); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if device.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := repo.GetByID(ctx, device.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SerialNumber != "NOA-001" {
		t.Errorf("SerialNumber = %q", got.SerialNumber)
	}

	bySerial, err := repo.GetBySerialNumber(ctx, "NOA-001")
	if err != nil {
		t.Fatalf("GetBySerialNumber: %v", err)
	}
	if bySerial.ID != device.ID {
		t.Errorf("ID = %q, want %q", bySerial.ID, device.ID)
	}
}

func TestMemoryDeviceRepositoryDuplicateSerial(t *testing.T) {
	repo := NewMemoryDeviceRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &entities.Device{SerialNumber: "NOA-001", SecretKey: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &entities.Device{SerialNumber: "NOA-001", SecretKey: "b"}); err == nil {
		t.Error("expected error for duplicate serial number")
	}
}

func TestValidateDevice(t *testing.T) {
	repo := NewMemoryDeviceRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &entities.Device{SerialNumber: "NOA-002", SecretKey: "s3cret"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.ValidateDevice("NOA-002", "s3cret"); err != nil {
		t.Errorf("valid credentials rejected: %v", err)
	}
	if _, err := repo.ValidateDevice("NOA-002", "wrong"); err == nil {
		t.Error("invalid secret accepted")
	}
	if _, err := repo.ValidateDevice("NOA-999", "s3cret"); err == nil {
		t.Error("unknown serial accepted")
	}
}

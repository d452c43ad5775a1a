//go:build !ocr

package ocr

import (
	"errors"
	"testing"
)

func TestNewNotEnabled(t *testing.T) {
	client, err := New()
	if !errors.Is(err, ErrNotEnabled) {
		t.Errorf("New() error = %v, want ErrNotEnabled", err)
	}
	if client != nil {
		t.Error("expected nil client")
	}
}

func TestNilClientClose(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestEnabledFlag(t *testing.T) {
	if Enabled {
		t.Error("Enabled must be false without the ocr build tag")
	}
}

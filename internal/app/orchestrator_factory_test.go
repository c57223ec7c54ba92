package app

import (
	"context"
	"testing"
)

func TestCreateOrchestrator_WithoutKafka(t *testing.T) {
	cfg := DefaultConfig()
	deps, err := NewDependencies(cfg, nil)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	defer deps.Close()

	orchestrator, err := createOrchestrator(cfg, deps, nil)
	if err != nil {
		t.Fatalf("createOrchestrator failed: %v", err)
	}
	if orchestrator == nil {
		t.Fatal("expected orchestrator")
	}

	product, err := orchestrator.GetProduct(context.Background())
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if product.Identifier != cfg.ProductID {
		t.Errorf("expected product %s, got %s", cfg.ProductID, product.Identifier)
	}
}

func TestCreateOrchestrator_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProductID = ""
	deps, err := NewDependencies(cfg, nil)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	defer deps.Close()

	if _, err := createOrchestrator(cfg, deps, nil); err == nil {
		t.Error("expected error for empty product id")
	}
}

package services

import (
	"context"
	"strings"
	"testing"

	"autodb/internal/intent"
	"autodb/internal/services/image"
	"autodb/internal/store"
	"autodb/internal/task"
)

type nopRunner struct{}

func (nopRunner) Run(context.Context, intent.Intent, ...any) ([]store.Record, error) {
	return nil, nil
}

func TestRegister_AllServices(t *testing.T) {
	b := task.NewRegistryBuilder()
	err := Register(b, Deps{Store: nopRunner{}, Image: image.Config{GeneratorURL: "http://gen"}})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	reg, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, ok := reg.Get(image.ServiceName); !ok {
		t.Errorf("expected %s to be registered, got %v", image.ServiceName, reg.Names())
	}
}

func TestRegister_UnknownService(t *testing.T) {
	err := Register(task.NewRegistryBuilder(), Deps{Store: nopRunner{}, Enabled: []string{"video_service"}})
	if err == nil || !strings.Contains(err.Error(), "video_service") {
		t.Errorf("expected unknown service error, got %v", err)
	}
}

func TestRegister_DuplicateIsFatalAtBuild(t *testing.T) {
	b := task.NewRegistryBuilder()
	deps := Deps{
		Store:   nopRunner{},
		Enabled: []string{image.ServiceName, image.ServiceName},
		Image:   image.Config{GeneratorURL: "http://gen"},
	}
	if err := Register(b, deps); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegister_MissingGeneratorURL(t *testing.T) {
	err := Register(task.NewRegistryBuilder(), Deps{Store: nopRunner{}})
	if err == nil {
		t.Error("expected error without generator url")
	}
}

func TestEnabled(t *testing.T) {
	got := Enabled([]string{"image_service", "nope", "image_service"})
	if len(got) != 1 || got[0] != "image_service" {
		t.Errorf("got %v", got)
	}
}

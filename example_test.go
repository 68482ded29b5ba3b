package goCampus_test

import (
	"context"
	"errors"

	goCampus "github.com/MrEthical07/goCampus"
	"github.com/MrEthical07/goCampus/navigation"
)

// ExampleNew builds an engine against a backend URL with the credential record in an
// encrypted file.
func ExampleNew() {
	cfg := goCampus.DefaultConfig()
	cfg.API.BaseURL = "https://campus.example.edu"
	cfg.Storage.Platform = "native"
	cfg.Storage.Path = "/var/lib/campus/session.json"
	cfg.Storage.Passphrase = "device-secret"

	engine, err := goCampus.New().
		WithConfig(cfg).
		WithRouter(navigation.RouterFunc(func(ctx context.Context, path string) error {
			return nil
		})).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()

	_, _ = engine.Start(context.Background())
}

// ExampleEngine_Login shows how the message of a rejected login is recovered.
func ExampleEngine_Login() {
	var engine *goCampus.Engine
	_, err := engine.Login(context.Background(), goCampus.Credentials{
		Email:    "student@campus.test",
		Password: "campus",
	})
	var loginErr *goCampus.LoginError
	if errors.As(err, &loginErr) {
		_ = loginErr.Message
	}
}

// ExampleEngine_Decide evaluates the guard without moving the router.
func ExampleEngine_Decide() {
	var engine *goCampus.Engine
	decision, err := engine.Decide("/dean/dashboard")
	if errors.Is(err, goCampus.ErrUnknownRole) {
		return
	}
	_ = decision.Target
}

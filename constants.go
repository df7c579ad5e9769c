//go:build !release

package main

const (
	DEBUG                   = true
	SecretsPath             = "secrets-debug.json"
	SettingsPath            = "settings.yaml"
	MaxDBconnectionPoolSize = 10
)

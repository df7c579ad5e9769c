//go:build release

package main

const (
	DEBUG                   = false
	SecretsPath             = "secrets.json"
	SettingsPath            = "settings.yaml"
	MaxDBconnectionPoolSize = 10
)

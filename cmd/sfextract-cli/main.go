package main

import (
	"errors"
	"os"

	"sfextract-backend/cmd/sfextract-cli/commands"
	"sfextract-backend/lib/serviceutil"
	"sfextract-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "sfextract-cli")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(ctx)
	}

	commands.ExecuteContext(ctx)
}

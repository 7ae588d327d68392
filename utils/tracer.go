package utils

import (
	"os"

	"github.com/Luismorlan/teamfeed/utils/dotenv"
	"github.com/Luismorlan/teamfeed/utils/flag"
	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// InitTracer starts the datadog tracer tagged with the service name and
// runtime env. Called from main after flags are parsed. Without a local
// agent the traces simply go nowhere, so development runs are unaffected.
func InitTracer() {
	env := os.Getenv("TEAMFEED_ENV")
	if env == "" {
		env = dotenv.DevEnv
	}

	tracer.Start(
		tracer.WithService(flag.ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}

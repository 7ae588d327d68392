package main

import (
	goflag "flag"
	"os"

	"github.com/Luismorlan/teamfeed/relay"
	"github.com/Luismorlan/teamfeed/utils"
	"github.com/Luismorlan/teamfeed/utils/dotenv"
	"github.com/Luismorlan/teamfeed/utils/flag"
	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func main() {
	goflag.Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	Logger.InitLogger()
	utils.InitTracer()
	defer utils.CloseTracer()

	store, err := buildStore()
	if err != nil {
		Logger.Log.Fatal("cannot build object store: ", err)
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(flag.ServiceName))
	relay.NewServer(store).Register(router)

	Logger.Log.Info("file relay starts up")
	router.Run(":" + listenPort())
}

// buildStore picks S3 when a bucket is configured, a local directory store
// otherwise. The local store exists for development, it keeps nothing
// durable.
func buildStore() (relay.ObjectStore, error) {
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		return relay.NewS3Store(bucket)
	}
	return relay.NewLocalStore("relay-dev")
}

func listenPort() string {
	if port := os.Getenv("RELAY_PORT"); port != "" {
		return port
	}
	return "8081"
}

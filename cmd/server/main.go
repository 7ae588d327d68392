package main

import (
	"context"
	goflag "flag"
	"os"

	"github.com/Luismorlan/teamfeed/feed"
	"github.com/Luismorlan/teamfeed/server"
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

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("cannot connect to DB: ", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Logger.Log.Fatal("cannot migrate DB: ", err)
	}

	ctx := context.Background()
	bus := buildChangeBus(ctx)
	defer bus.Close()

	feedService := feed.NewFeedService(db, bus)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(flag.ServiceName))
	server.NewServer(feedService).Register(router)

	Logger.Log.Info("api server starts up")
	router.Run(":" + listenPort())
}

// buildChangeBus wires the cross-process redis relay when REDIS_HOST is
// configured, otherwise live queries stay process local.
func buildChangeBus(ctx context.Context) *feed.ChangeBus {
	if os.Getenv("REDIS_HOST") == "" {
		return feed.NewChangeBus()
	}

	bus := feed.NewChangeBusWithRedis(feed.NewRedisClientFromEnv())
	go func() {
		if err := bus.RunRedisRelay(ctx); err != nil && err != context.Canceled {
			Logger.Log.Warn("redis change relay stopped: ", err)
		}
	}()
	return bus
}

func listenPort() string {
	if port := os.Getenv("API_PORT"); port != "" {
		return port
	}
	return "8080"
}

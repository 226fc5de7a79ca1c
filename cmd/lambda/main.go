package main

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/altura-labs/recommendation/internal/config"
	"github.com/altura-labs/recommendation/internal/server"
	"github.com/altura-labs/recommendation/pkg/utils"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambda
)

// setup runs once per warm instance. The search client inside the app is
// still created lazily on the first invocation that needs it.
func setup(ctx context.Context) error {
	initOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}

		logger := utils.NewLogger(cfg.Log.Level)
		gin.SetMode(gin.ReleaseMode)

		app, err := server.NewApp(ctx, cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize recommendation app")
			initErr = err
			return
		}

		ginLambda = ginadapter.New(app.Router)
		logger.Info("Recommendation function initialized")
	})
	return initErr
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := setup(ctx); err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Headers: map[string]string{
				"Access-Control-Allow-Origin":  "*",
				"Access-Control-Allow-Headers": "*",
				"Content-Type":                 "application/json",
			},
			Body: mustJSON(map[string]string{"error": err.Error(), "type": "ImproperlyConfigured"}),
		}, nil
	}
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"internal error","type":"SerializationError"}`
	}
	return string(data)
}

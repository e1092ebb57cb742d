// Command netlify serves the posts API as a Netlify (AWS Lambda) function.
//
// netlify.toml deploys this binary once per endpoint name, so a request to
// /.netlify/functions/list-posts arrives with that full path and is routed
// by the functions prefix mount.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/rs/zerolog/log"

	api "github.com/rpupo63/collage-backend/api"
	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/storage"
)

var adapter *chiadapter.ChiLambda

func main() {
	c := config.New()
	config.ConfigureLogging(c)

	ctx := context.Background()
	if err := config.ResolveSecrets(ctx, c, "ADMIN_JWT_SECRET", "CLD_API_SECRET"); err != nil {
		log.Fatal().Err(err).Msg("Error resolving secrets")
	}

	store, err := storage.Open(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage")
	}

	adapter = chiadapter.New(api.NewRouter(store, c))
	lambda.Start(handleRequest)
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, request)
}

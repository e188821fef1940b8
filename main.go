package main

import (
	"log"
	"os"
	"time"

	"bitbucket.org/vecpay/backend/api"
	"bitbucket.org/vecpay/backend/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

// @title vecpay API
// @version 0.1
// @description Payments, invoices and receipts backend.

// @host api.vecpay.io
// @BasePath /
// @schemes http https

// @securityDefinitions.apiKey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	_ = godotenv.Load("dev.env")

	app := cli.NewApp()
	app.Name = "Vecpay Backend"
	app.Version = "1.00"
	app.Compiled = time.Now()
	app.Commands = []cli.Command{
		{
			Name:  "backend-up",
			Usage: "This command starts the backend service",
			Action: func(c *cli.Context) error {
				StartServer(api.GetRoutes())
				return nil
			},
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func StartServer(routes []*server.Route) {
	ctx := server.GetAppContext()
	ctx.CreateSQLConnection()
	ctx.CreateSMTPConnection()
	ctx.CreateGatewayClient()
	ctx.CreateNewSessionS3()
	ctx.CreatePaymentCore()

	server.UpServer(routes, ctx)
}

package main

import (
	"net/http"

	"github.com/joho/godotenv"

	"matrixnotes/config/database"
	"matrixnotes/pkg/logger"
	"matrixnotes/router"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	db := database.Connect()
	defer db.Close()

	handler := router.Setup(db)

	logger.Sugar.Info("Matrix notes backend listening on :8080")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}

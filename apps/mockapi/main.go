// Command mockapi serves an in-memory school management backend for local development.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	mockapi "github.com/trezcool/masomo-console/apps/mockapi/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/user"
	logsvc "github.com/trezcool/masomo-console/services/logger"
)

// seeded account
var (
	adminName     = "School Admin"
	adminEmail    = "admin@masomo.local"
	adminPassword = "admin123"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("MOCKAPI", conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	server := mockapi.NewServer(&mockapi.Options{
		Address:        conf.Mock.Address,
		AppName:        conf.AppName,
		SecretKey:      conf.Mock.SecretKey,
		JWTExpiration:  conf.Mock.JWTExpirationDelta,
		Debug:          conf.Debug,
		DisableReqLogs: conf.Server.DisableReqLogs,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
	})

	if _, err := server.CreateUser(adminName, adminEmail, adminPassword, user.RoleAdmin); err != nil {
		logger.Fatal(fmt.Sprintf("seeding admin: %v", err), err)
	}
	server.Notify("Welcome", "Welcome to the "+conf.AppName+" school management system.", school.NotificationInfo)
	logger.Info(fmt.Sprintf("Mock backend listening on %s; log in as %s / %s", conf.Mock.Address, adminEmail, adminPassword))

	go server.Start()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

// Command masomo is the terminal client of the school management backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/pages"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/user"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/services/schoolapi"
	filestore "github.com/trezcool/masomo-console/storage/file"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("CLI", conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(filestore.New(conf.Session.FilePath), logger)
	if err := store.Restore(ctx); err != nil {
		logger.Warn(fmt.Sprintf("restoring session: %v", err), err)
	}

	api := schoolapi.New(conf.Backend.BaseURL, schoolapi.TokenFunc(store.Token), schoolapi.WithTimeout(conf.Backend.Timeout))
	if conf.Session.LogoutOnUnauthorized {
		api = api.WithUnauthorizedHook(store.Logout)
	}

	cli := commandLine{
		ctx: ctx,
		env: pages.Env{
			API:        api,
			Toaster:    printToaster{out: os.Stdout},
			Validate:   validate,
			Translator: translator,
			Logger:     logger,
		},
		session: store,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp && err != errFailed {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

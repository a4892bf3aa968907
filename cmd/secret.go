package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/buttonpad/buttonpad/cmd/common"
	"github.com/buttonpad/buttonpad/internal/config"
)

func secretSet(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	secret, err := config.StoreSecret(arg)
	if err != nil {
		common.PrintRuntimeErr(ctx, "secret", "store", err)
		return nil
	}
	if arg == "" {
		fmt.Printf("Generated rpc secret: %s\n", secret)
	}
	fmt.Println("Stored rpc secret in the OS keyring")
	return nil
}

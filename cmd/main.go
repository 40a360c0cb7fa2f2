package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quka-ai/studymate/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "studymate",
		Short: "studymate",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewProcessCommand(), service.NewTokenCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

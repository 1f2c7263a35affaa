package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/distance"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model/file"
)

func newDistanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "distance MODEL_A MODEL_B",
		Short: "Print the L1 distance between two model files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := file.Load(args[0], a.alpha.Size())
			if err != nil {
				return err
			}
			y, err := file.Load(args[1], a.alpha.Size())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", distance.L1(x, y))
			return nil
		},
	}
}

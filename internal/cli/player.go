package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/whotscan/internal/api/response"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player seat commands",
	}

	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerGetCmd())

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game-id>",
		Short: "List every seat of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}

			var result response.PlayerList

			if err := client.Get(cmd.Context(), "/api/v1/games/"+id+"/players", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id> <index>",
		Short: "Get a single seat of a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}
			idx, err := playerIndexArg(args[1])
			if err != nil {
				return err
			}

			var result response.Player

			path := fmt.Sprintf("/api/v1/games/%s/players/%d", id, idx)
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

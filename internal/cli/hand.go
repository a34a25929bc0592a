package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/whotscan/internal/api/request"
	"github.com/mcoot/whotscan/internal/api/response"
	"github.com/mcoot/whotscan/internal/model"
)

func newHandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hand",
		Short: "Revealed hand commands",
	}

	cmd.AddCommand(newHandDecodeCmd())
	cmd.AddCommand(newHandGetCmd())
	cmd.AddCommand(newHandListCmd())
	cmd.AddCommand(newHandClearCmd())

	return cmd
}

func newHandDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <game-id> <index> <clear-word0> <clear-word1>",
		Short: "Decode a player's hand from its two plaintext words",
		Long: `Decode the hand of a seat from the two decrypted hand words. The words
may be given in decimal or 0x-prefixed hex. The server keeps the decoded hand
so it can be fetched again with "hand get".`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}
			idx, err := playerIndexArg(args[1])
			if err != nil {
				return err
			}
			for _, w := range args[2:] {
				if _, err := model.ParseWord(w); err != nil {
					return err
				}
			}

			req := request.DecodeHandRequest{
				ClearWord0: args[2],
				ClearWord1: args[3],
			}
			var result response.Hand

			path := fmt.Sprintf("/api/v1/games/%s/players/%d/hand", id, idx)
			if err := client.Post(cmd.Context(), path, req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newHandGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id> <index>",
		Short: "Get a previously decoded hand",
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

			var result response.Hand

			path := fmt.Sprintf("/api/v1/games/%s/players/%d/hand", id, idx)
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newHandListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game-id>",
		Short: "List every decoded hand of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}

			var result response.HandList

			if err := client.Get(cmd.Context(), "/api/v1/games/"+id+"/hands", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newHandClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <game-id>",
		Short: "Drop the decoded hands and cached snapshot of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), "/api/v1/games/"+id+"/hands"); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Cleared cached state of game " + id)
			return nil
		},
	}
}

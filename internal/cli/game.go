package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/whotscan/internal/api/response"
	"github.com/mcoot/whotscan/internal/model"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameNextIDCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameRecentCmd())
	cmd.AddCommand(newGameCommitmentCmd())

	return cmd
}

func newGameNextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Show the id the next created game will get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.NextGameID

			if err := client.Get(cmd.Context(), "/api/v1/games/next-id", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Get a game record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}

			var result response.Game

			if err := client.Get(cmd.Context(), "/api/v1/games/"+id, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game-id>...",
		Short: "Get several game records in one request",
		Long: `Fetch several games at once. Games that do not exist are left out of
the result.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, len(args))
			for i, arg := range args {
				id, err := gameIDArg(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}

			var result response.GameList

			path := "/api/v1/games?ids=" + url.QueryEscape(strings.Join(ids, ","))
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently created games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}

			var result response.GameList

			path := "/api/v1/games/recent?limit=" + strconv.Itoa(limit)
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of games to list")

	return cmd
}

func newGameCommitmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commitment <game-id>",
		Short: "Show the pending move commitment of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gameIDArg(args[0])
			if err != nil {
				return err
			}

			var result response.Commitment

			if err := client.Get(cmd.Context(), "/api/v1/games/"+id+"/commitment", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

// gameIDArg validates a game id argument and returns it in decimal form.
func gameIDArg(arg string) (string, error) {
	id, err := model.ParseGameID(arg)
	if err != nil {
		return "", err
	}
	return id.Dec(), nil
}

// playerIndexArg validates a seat index argument.
func playerIndexArg(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidPlayerIndex, arg)
	}
	return idx, nil
}

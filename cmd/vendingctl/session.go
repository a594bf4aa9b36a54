package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Proton-105/vending-machine/internal/fleet"
	"github.com/Proton-105/vending-machine/internal/journal"
	"github.com/Proton-105/vending-machine/internal/vending"
)

const sessionHelp = `commands:
  insert <nickel|dime|quarter|penny>   feed a coin
  select <cola|chips|candy>            press a product button
  return                               press the coin return button
  display                              read the display
  tray                                 look into the coin return
  status                               show balance, stock and vault
  history                              show what happened so far
  restock <product> <count>            add stock
  reset                                restock and clear the machine
  help                                 show this text
  quit                                 leave`

var errQuit = errors.New("quit")

func sessionCmd() *cobra.Command {
	var (
		stock     int
		machineID string
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run an interactive session against one machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := fleet.NewService(fleet.Options{
				DefaultStock: stock,
				Journal:      journal.NewMemoryJournal(journal.DefaultMaxEntries),
				Log:          slog.Default(),
			})

			s := &session{
				service:   service,
				machineID: machineID,
				out:       cmd.OutOrStdout(),
			}
			return s.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().IntVar(&stock, "stock", vending.DefaultStock, "Units of every product the machine starts with")
	cmd.Flags().StringVar(&machineID, "machine", "cli", "Machine identifier used in the journal")

	return cmd
}

type session struct {
	service   *fleet.Service
	machineID string
	out       io.Writer
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintln(s.out, "type help for commands")
	s.prompt()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			err := s.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				return err
			}
		}
		s.prompt()
	}

	return scanner.Err()
}

func (s *session) prompt() {
	fmt.Fprint(s.out, "> ")
}

func (s *session) exec(ctx context.Context, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	command, args := fields[0], fields[1:]

	switch command {
	case "insert":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: insert <coin>")
			return nil
		}
		return s.insert(ctx, args[0])
	case "select":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: select <product>")
			return nil
		}
		return s.selectProduct(ctx, args[0])
	case "return":
		coins, err := s.service.Return(ctx, s.machineID)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "returned: %s\n", formatCoins(coins))
	case "display":
		return s.display(ctx)
	case "tray":
		coins, err := s.service.Tray(ctx, s.machineID)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "coin return: %s\n", formatCoins(coins))
	case "status":
		return s.status(ctx)
	case "history":
		return s.history(ctx)
	case "restock":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: restock <product> <count>")
			return nil
		}
		return s.restock(ctx, args[0], args[1])
	case "reset":
		if err := s.service.Reset(ctx, s.machineID); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "machine reset")
	case "help":
		fmt.Fprintln(s.out, sessionHelp)
	case "quit", "exit":
		return errQuit
	default:
		fmt.Fprintf(s.out, "unknown command %q, type help\n", command)
	}

	return nil
}

func (s *session) insert(ctx context.Context, name string) error {
	coin, err := vending.ParseCoin(name)
	if err != nil {
		fmt.Fprintf(s.out, "unknown coin %q\n", name)
		return nil
	}

	accepted, err := s.service.Deposit(ctx, s.machineID, coin)
	if err != nil {
		return err
	}
	if !accepted {
		fmt.Fprintf(s.out, "%s rejected\n", coin)
		return nil
	}

	return s.display(ctx)
}

func (s *session) selectProduct(ctx context.Context, name string) error {
	product, err := vending.ParseProduct(name)
	if err != nil {
		fmt.Fprintf(s.out, "unknown product %q\n", name)
		return nil
	}

	got, err := s.service.Select(ctx, s.machineID, product)
	if err != nil {
		return err
	}
	if got == vending.ProductNone {
		return s.display(ctx)
	}

	change, err := s.service.Tray(ctx, s.machineID)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "dispensed %s, change: %s\n", got, formatCoins(change))

	return s.display(ctx)
}

func (s *session) restock(ctx context.Context, name, rawCount string) error {
	product, err := vending.ParseProduct(name)
	if err != nil {
		fmt.Fprintf(s.out, "unknown product %q\n", name)
		return nil
	}

	count, err := strconv.Atoi(rawCount)
	if err != nil || count <= 0 {
		fmt.Fprintf(s.out, "count must be a positive number, got %q\n", rawCount)
		return nil
	}

	if err := s.service.Restock(ctx, s.machineID, product, count); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "added %d %s\n", count, product)
	return nil
}

func (s *session) display(ctx context.Context) error {
	message, err := s.service.Display(ctx, s.machineID)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "[%s]\n", message)
	return nil
}

func (s *session) status(ctx context.Context) error {
	snap, err := s.service.Snapshot(ctx, s.machineID)
	if err != nil {
		return err
	}

	stock := make([]string, 0, len(snap.Inventory))
	for _, product := range vending.Products() {
		stock = append(stock, fmt.Sprintf("%s=%d", product, snap.Inventory[product]))
	}

	vault := make([]string, 0, 3)
	for _, coin := range vending.Coins() {
		if coin.Accepted() {
			vault = append(vault, fmt.Sprintf("%s=%d", coin, snap.Vault.Count(coin)))
		}
	}

	fmt.Fprintf(s.out, "state: %s\nbalance: %s\nstock: %s\nvault: %s\ncoin return: %s\n",
		snap.State,
		vending.FormatCents(snap.Balance),
		strings.Join(stock, " "),
		strings.Join(vault, " "),
		formatCoins(snap.Tray),
	)
	return nil
}

func (s *session) history(ctx context.Context) error {
	entries, err := s.service.History(ctx, s.machineID, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "no history")
		return nil
	}

	for _, entry := range entries {
		line := string(entry.Kind)
		if entry.Product != "" {
			line += " " + entry.Product
		}
		if len(entry.Coins) > 0 {
			line += " [" + strings.Join(entry.Coins, ", ") + "]"
		}
		fmt.Fprintln(s.out, line)
	}

	return nil
}

func formatCoins(coins []vending.Coin) string {
	if len(coins) == 0 {
		return "empty"
	}

	names := make([]string, 0, len(coins))
	for _, coin := range coins {
		names = append(names, coin.String())
	}
	return strings.Join(names, ", ")
}

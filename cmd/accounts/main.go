// Command accounts is the operator tool for the account store: add, list, and
// remove stored accounts, and report redeemed coupons for one account. The
// orchestration flow never writes accounts; this tool is the only writer.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/term"

	"github.com/mstreet/couponclip/internal/adapter/driven/freshop"
	sqliteadapter "github.com/mstreet/couponclip/internal/adapter/driven/sqlite"
	"github.com/mstreet/couponclip/internal/config"
	"github.com/mstreet/couponclip/internal/domain/model"
	"github.com/mstreet/couponclip/internal/domain/port/driven"
	"github.com/mstreet/couponclip/internal/secret"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stdout, "Usage: accounts <add|list|remove|redeemed> [flags]")
		return errors.New("missing subcommand")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		return runAdd(args[1:], cfg, stdin, stdout)
	case "list":
		return runList(args[1:], cfg, stdout)
	case "remove":
		return runRemove(args[1:], cfg, stdout)
	case "redeemed":
		return runRedeemed(args[1:], cfg, stdout)
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func runAdd(args []string, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("accounts add", flag.ContinueOnError)
	username := fs.String("user", "", "Account username (email)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fs.PrintDefaults()
		return errors.New("missing required flag: -user")
	}

	if cfg.MasterKey == "" {
		return errors.New("COUPONCLIP_MASTER_KEY must be set; pick a password-like master secret")
	}
	if cfg.SaltBase64 == "" {
		salt, err := secret.GenerateSalt()
		if err != nil {
			return err
		}
		cfg.SaltBase64 = salt
		// Without this salt the stored password can never be decrypted again.
		fmt.Fprintf(stdout, "Generated salt: %s\nSave it as COUPONCLIP_SALT before running the worker.\n", salt)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password cannot be empty")
	}

	cipher, err := secret.NewCipher(cfg.MasterKey, cfg.SaltBase64)
	if err != nil {
		return err
	}
	encrypted, err := cipher.Encrypt(password)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	id, err := store.Create(context.Background(), *username, encrypted)
	if err != nil {
		return fmt.Errorf("store account: %w", err)
	}

	fmt.Fprintf(stdout, "Account %s stored with ID %d\n", *username, id)
	return nil
}

func runList(args []string, cfg *config.Config, stdout io.Writer) error {
	fs := flag.NewFlagSet("accounts list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	accounts, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(stdout, "No accounts found. Use 'accounts add -user <username>' to add one.")
		return nil
	}

	for _, acct := range accounts {
		fmt.Fprintf(stdout, "ID: %-3d Username: %s\n", acct.ID, acct.Username)
	}
	return nil
}

func runRemove(args []string, cfg *config.Config, stdout io.Writer) error {
	fs := flag.NewFlagSet("accounts remove", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: accounts remove <id|username>")
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	acct, err := resolveAccount(ctx, store, fs.Arg(0))
	if err != nil {
		return err
	}

	if err := store.Delete(ctx, acct.ID); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Removed account %d - %s\n", acct.ID, acct.Username)
	return nil
}

// runRedeemed authenticates one account and reports what it has redeemed in
// store. Useful for checking that clipped coupons are actually being used.
func runRedeemed(args []string, cfg *config.Config, stdout io.Writer) error {
	fs := flag.NewFlagSet("accounts redeemed", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: accounts redeemed <id|username>")
	}

	cipher, err := secret.NewCipher(cfg.MasterKey, cfg.SaltBase64)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	acct, err := resolveAccount(ctx, store, fs.Arg(0))
	if err != nil {
		return err
	}

	password, err := cipher.Decrypt(acct.EncryptedPassword)
	if err != nil {
		return fmt.Errorf("decrypt stored password: %w", err)
	}

	client := freshop.NewClient(cfg.APIBaseURL, cfg.AppKey)
	session, err := client.Authenticate(ctx, acct.Username, password)
	if err != nil {
		return err
	}
	session.AccountID = acct.ID

	redeemed, err := client.ListRedeemedCoupons(ctx, session)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s has redeemed %d coupon(s) worth %s\n", acct.Username, redeemed.Count, redeemed.TotalValue)
	for _, coupon := range redeemed.Coupons {
		fmt.Fprintf(stdout, "  %s %s (%s)\n", coupon.OfferValue, coupon.Brand, coupon.Description)
	}
	return nil
}

func openStore(cfg *config.Config) (*sqliteadapter.AccountRepo, func(), error) {
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, nil, err
	}
	return sqliteadapter.NewAccountRepo(db), func() { _ = db.Close() }, nil
}

// resolveAccount accepts a numeric ID or a username.
func resolveAccount(ctx context.Context, store driven.AccountStore, arg string) (model.Account, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return store.GetByID(ctx, id)
	}
	return store.GetByUsername(ctx, arg)
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal stdin (tests, pipes).
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

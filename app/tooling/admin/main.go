// This program performs administrative tasks for the ledger node.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/bolt"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args        conf.Args
		GenesisPath string `conf:"default:zblock/genesis.json"`
		Storage     string `conf:"default:disk"`
		DBPath      string `conf:"default:zblock/blocks/"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	var storage database.Serializer
	switch cfg.Storage {
	case "disk":
		storage, err = disk.New(cfg.DBPath)
	case "bolt":
		storage, err = bolt.New(filepath.Join(cfg.DBPath, "blocks.db"))
	default:
		err = fmt.Errorf("unknown storage %q, use disk or bolt", cfg.Storage)
	}
	if err != nil {
		return err
	}

	// Opening the database replays and validates every stored block.
	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}
	db, err := database.New(gen, storage, ev)
	if err != nil {
		storage.Close()
		return fmt.Errorf("replaying chain: %w", err)
	}
	defer db.Close()

	return processCommands(cfg.Args, db)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, db *database.Database) error {
	switch args.Num(0) {
	case "accounts":
		if err := commands.Accounts(args.Num(1), db); err != nil {
			return fmt.Errorf("getting accounts: %w", err)
		}
	case "blocks":
		if err := commands.Blocks(args.Num(1), db); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}
	case "verify":
		if err := commands.Verify(db); err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}
	default:
		fmt.Println("accounts [account]: show the ledger accounts")
		fmt.Println("blocks [account]:   show the blocks touching an account")
		fmt.Println("verify:             replay the stored chain from genesis")
	}

	return nil
}

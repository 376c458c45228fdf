package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/turbouploader/internal/client/config"
	"github.com/dmitrijs2005/turbouploader/internal/client/services"
	"github.com/dmitrijs2005/turbouploader/internal/common"
)

func (a *App) hasWallet() bool { return a.wallets.Current() != nil }

// passphrase returns the configured passphrase source. In user mode the
// secret is prompted without echo, twice when confirm is set. The returned
// func wipes it.
func (a *App) passphrase(confirm bool) (services.PassphraseSource, func(), error) {
	if a.config.PassphraseMode == config.PassphraseIdentity {
		return services.IdentityPassphrase{Identity: a.identity}, func() {}, nil
	}

	pw, err := getPassword(a.out, "Passphrase")
	if err != nil {
		return nil, nil, err
	}
	if confirm {
		again, err := getPassword(a.out, "Repeat passphrase")
		if err != nil {
			common.WipeByteArray(pw)
			return nil, nil, err
		}
		same := bytes.Equal(pw, again)
		common.WipeByteArray(again)
		if !same {
			common.WipeByteArray(pw)
			return nil, nil, common.NewError(common.KindValidation, "Passphrases do not match", nil)
		}
	}
	return services.UserPassphrase(pw), func() { common.WipeByteArray(pw) }, nil
}

// Create generates and stores a new sponsored wallet.
func (a *App) Create(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = getSimpleText(a.reader, "Profile name", a.out); err != nil {
			return err
		}
	}

	src, wipe, err := a.passphrase(true)
	if err != nil {
		a.printErr(err)
		return err
	}
	defer wipe()

	fmt.Fprintln(a.out, "Generating wallet key, this can take a while...")
	w, err := a.wallets.CreateSponsoredWallet(ctx, name, src)
	if err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Wallet created: %s\n", w.Address())
	return nil
}

// Unlock decrypts the stored sponsored wallet.
func (a *App) Unlock(ctx context.Context) error {
	ok, err := a.wallets.HasSponsoredWallet(ctx)
	if err != nil {
		a.printErr(err)
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "No saved wallet. Use 'create <name>' first.")
		return nil
	}

	src, wipe, err := a.passphrase(false)
	if err != nil {
		a.printErr(err)
		return err
	}
	defer wipe()

	w, err := a.wallets.UnlockSponsoredWallet(ctx, src)
	if err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Wallet unlocked: %s\n", w.Address())
	return nil
}

// Connect asks the wallet agent for access.
func (a *App) Connect(ctx context.Context) error {
	fmt.Fprintln(a.out, "Waiting for the wallet agent to approve...")
	w, err := a.wallets.ConnectExternalWallet(ctx)
	if err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Wallet connected: %s\n", w.Address())
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	if err := a.wallets.Disconnect(ctx); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Wallet disconnected")
	return nil
}

// DeleteProfile wipes the stored wallet after confirmation.
func (a *App) DeleteProfile(ctx context.Context) error {
	ok, err := getConfirmation(a.reader, "Delete the saved wallet? It cannot be recovered without a backup.", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.wallets.DeleteProfile(ctx); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Profile deleted")
	return nil
}

func (a *App) Sponsor(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: sponsor <address>")
		return nil
	}
	if err := a.wallets.SetSponsorAddress(ctx, args[0]); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Sponsor address saved")
	return nil
}

func (a *App) SponsorClear(ctx context.Context) error {
	if err := a.wallets.ClearSponsorAddress(ctx); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Sponsor address cleared")
	return nil
}

// Address prints the full address and its short form.
func (a *App) Address(ctx context.Context) error {
	h := a.wallets.Current()
	if h == nil {
		fmt.Fprintln(a.out, "No wallet connected")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", h.Address(), shortAddress(h.Address()))
	return nil
}

// printWalletOptions is shown when an action needs a wallet.
func (a *App) printWalletOptions(ctx context.Context) {
	has, err := a.wallets.HasSponsoredWallet(ctx)
	if err != nil {
		a.printErr(err)
	}
	fmt.Fprintln(a.out, "No wallet connected. Options:")
	if has {
		fmt.Fprintln(a.out, "  unlock           unlock your saved wallet")
	} else {
		fmt.Fprintln(a.out, "  create <name>    create a new wallet")
	}
	fmt.Fprintln(a.out, "  connect          use an external wallet")
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/turbouploader/internal/address"
	"github.com/dmitrijs2005/turbouploader/internal/client/models"
	"github.com/dmitrijs2005/turbouploader/internal/client/wallet"
)

// previewChars bounds the text preview of a selected file.
const previewChars = 500

// Select chooses a file for the next upload and prints a preview.
func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: select <path>")
		return nil
	}
	f, err := models.FileFromPath(strings.Join(args, " "))
	if err != nil {
		a.printErr(err)
		return err
	}

	a.mu.Lock()
	a.selected = f
	a.mu.Unlock()

	fmt.Fprintf(a.out, "Selected %s (%s)\n", f.Name, formatFileSize(f.Size))
	if strings.HasPrefix(f.ContentType, "text/") {
		preview, err := textPreview(f)
		if err != nil {
			a.log.Warn(ctx, "preview failed", "error", err)
			return nil
		}
		fmt.Fprintln(a.out, preview)
	}
	return nil
}

// textPreview returns the first previewChars characters of f.
func textPreview(f *models.File) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	// 4 bytes per rune at most
	buf, err := io.ReadAll(io.LimitReader(r, previewChars*utf8.UTFMax))
	if err != nil {
		return "", err
	}
	s := strings.ToValidUTF8(string(buf), "�")
	if utf8.RuneCountInString(s) <= previewChars {
		return s, nil
	}
	return string([]rune(s)[:previewChars]) + "...", nil
}

// Upload is the upload click: without a wallet it lists the wallet options,
// a sponsored wallet with a saved sponsor uploads right away, otherwise the
// user may enter a sponsor address first.
func (a *App) Upload(ctx context.Context) error {
	h := a.wallets.Current()
	if h == nil {
		a.printWalletOptions(ctx)
		return nil
	}

	sponsor, err := a.resolveSponsor(ctx, h)
	if err != nil {
		return err
	}

	job, err := a.uploads.Submit(ctx, a.selectedFile(), h, sponsor)
	if err != nil {
		// failed jobs were rendered by the observer
		if job == nil {
			a.printErr(err)
		}
		return err
	}
	return nil
}

func (a *App) resolveSponsor(ctx context.Context, h wallet.Handle) (string, error) {
	if h.Type() == wallet.TypeSponsored {
		p, err := a.wallets.Profile(ctx)
		if err != nil {
			a.printErr(err)
			return "", err
		}
		if p != nil && p.SponsorAddress != "" {
			return p.SponsorAddress, nil
		}
	}

	sponsor, err := getSimpleText(a.reader, "Sponsor address (optional, press Enter to skip)", a.out)
	if err != nil {
		return "", err
	}
	if sponsor != "" && h.Type() == wallet.TypeSponsored && address.IsValid(sponsor) {
		if err := a.wallets.SetSponsorAddress(ctx, sponsor); err != nil {
			a.log.Warn(ctx, "sponsor address not saved", "error", err)
		}
	}
	return sponsor, nil
}

// Dismiss clears a finished upload.
func (a *App) Dismiss(ctx context.Context) error {
	a.uploads.Acknowledge()
	if a.uploads.Status() != nil {
		fmt.Fprintln(a.out, "An upload is still running")
	}
	return nil
}

// Status prints the wallet, the login, the selected file and the last upload.
func (a *App) Status(ctx context.Context) error {
	if h := a.wallets.Current(); h != nil {
		fmt.Fprintf(a.out, "Wallet: %s %s\n", h.Type(), h.Address())
	} else {
		fmt.Fprintf(a.out, "Wallet: none (%s)\n", a.wallets.State())
	}
	if a.identity.Enabled() {
		if sess := a.identity.Current(); sess != nil {
			fmt.Fprintf(a.out, "Login: %s\n", sess.Subject)
		} else {
			fmt.Fprintln(a.out, "Login: not logged in")
		}
	}
	if f := a.selectedFile(); f != nil {
		fmt.Fprintf(a.out, "File: %s (%s)\n", f.Name, formatFileSize(f.Size))
	}
	if job := a.uploads.Status(); job != nil {
		a.renderJob(*job)
	}
	return nil
}

// renderJob prints one upload status line.
func (a *App) renderJob(job models.UploadJob) {
	switch job.Status {
	case models.UploadPreparing:
		fmt.Fprintf(a.out, "Preparing %s...\n", job.FileName)
	case models.UploadSigning:
		fmt.Fprintln(a.out, "Signing...")
	case models.UploadTransmitting:
		fmt.Fprintln(a.out, "Uploading...")
	case models.UploadSucceeded:
		fmt.Fprintf(a.out, "Upload complete: %s\n", job.Locator)
	case models.UploadFailed:
		if job.Failure != nil {
			a.printErr(job.Failure)
		} else {
			fmt.Fprintln(a.out, "Upload failed")
		}
	}
}

// historyLimit is how many past uploads the history command shows.
const historyLimit = 10

// History lists recent finished uploads, newest first.
func (a *App) History(ctx context.Context) error {
	jobs, err := a.history.List(ctx, historyLimit)
	if err != nil {
		a.printErr(err)
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(a.out, "No uploads yet")
		return nil
	}
	for _, j := range jobs {
		result := j.Locator
		if j.Failure != nil {
			result = string(j.Failure.Kind)
		}
		fmt.Fprintf(a.out, "%s  %-9s  %s (%s)  %s\n",
			j.CreatedAt.Local().Format("2006-01-02 15:04"), j.Status, j.FileName, formatFileSize(j.FileSize), result)
	}
	return nil
}

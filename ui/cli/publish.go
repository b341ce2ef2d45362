// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// publish.go contains the 'publish' and 'trust-host' commands: uploading the
// newest gallery to the configured web host over SFTP, and pinning that
// host's SSH key on first contact.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/pelagios/driftwatch/internal/db"
	"github.com/pelagios/driftwatch/internal/i18n"
	"github.com/pelagios/driftwatch/internal/publish"
)

// publishCmd represents the 'publish' command.
// It uploads the most recent gallery image as latest.jpg on the configured
// remote host.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the newest gallery to the configured web host",
	Long: `Uploads the most recently built gallery image to the host configured
under 'publish' in driftwatch.yaml. The file lands as latest.jpg via an
atomic rename; with keep_history enabled a timestamped copy is kept
alongside it.

The remote host's SSH key must be pinned first with 'driftwatch trust-host'.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		latest, err := db.Default().GetLatestGallery()
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				fmt.Println(i18n.T("publish.no_gallery"))
				return
			}
			log.Fatalf("%v", err)
		}
		if _, err := os.Stat(latest.Path); err != nil {
			log.Fatalf("gallery file %s is gone, rebuild it with 'driftwatch gallery'", latest.Path)
		}

		pubCfg := appConfig.Publish
		if pubCfg.Host == "" || pubCfg.User == "" {
			log.Fatalf("publish.host and publish.user must be set in driftwatch.yaml")
		}

		p := &publish.Publisher{
			Host:        pubCfg.Host,
			User:        pubCfg.User,
			RemoteDir:   pubCfg.RemoteDir,
			KeepHistory: pubCfg.KeepHistory,
			HostKeys:    db.Default(),
		}

		if pubCfg.KeyFile != "" {
			keyData, err := os.ReadFile(pubCfg.KeyFile)
			if err != nil {
				log.Fatalf("read publish key: %v", err)
			}
			p.KeyData = keyData

			// Encrypted keys need a passphrase before the dial.
			if _, perr := ssh.ParsePrivateKey(keyData); perr != nil {
				var missing *ssh.PassphraseMissingError
				if errors.As(perr, &missing) {
					fmt.Print(i18n.T("publish.passphrase_prompt", pubCfg.KeyFile))
					passphrase, rerr := term.ReadPassword(int(os.Stdin.Fd()))
					fmt.Println()
					if rerr != nil {
						log.Fatalf("read passphrase: %v", rerr)
					}
					p.Passphrase = passphrase
				}
			}
		}

		fmt.Println(i18n.T("publish.start", latest.Path, pubCfg.Host))
		conn, err := p.Connect()
		if err != nil {
			log.Fatalf("%s", i18n.T("publish.error", err))
		}
		defer conn.Close()

		if err := p.Upload(conn, latest.Path); err != nil {
			log.Fatalf("%s", i18n.T("publish.error", err))
		}
		fmt.Println(i18n.T("publish.success", publish.RemoteLatestName))
	},
}

// trustHostCmd represents the 'trust-host' command.
// It facilitates the initial trust of the publish host by fetching its
// public SSH key, displaying its fingerprint, and prompting the user to
// save it to the database as a known host.
var trustHostCmd = &cobra.Command{
	Use:   "trust-host <host>",
	Short: "Pin a host's public key for publishing",
	Long: `Connects to a host for the first time, retrieves its public key,
and prompts the user to save it to the database. This is a required
step before Driftwatch can publish galleries to a new host.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		target := args[0]
		hostname := target
		if strings.Contains(target, "@") {
			hostname = strings.SplitN(target, "@", 2)[1]
		}

		fmt.Printf("Attempting to retrieve host key from %s…\n", hostname)
		key, err := publish.GetRemoteHostKey(hostname)
		if err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_get_key", err))
		}

		fmt.Printf("The authenticity of host '%s' can't be established.\n", hostname)
		fmt.Printf("Key fingerprint: %s\n", ssh.FingerprintSHA256(key))

		ans := promptForConfirmation("Are you sure you want to continue connecting (yes/no)? ")
		if ans != "yes" && ans != "y" {
			fmt.Println(i18n.T("trust_host.cancelled"))
			return
		}

		if err := db.AddKnownHostKey(hostname, string(ssh.MarshalAuthorizedKey(key))); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("trust_host.added", hostname))
	},
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}

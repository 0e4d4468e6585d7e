package encryption

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// AgeEncryptor implements Encryptor using filippo.io/age with X25519 keys
// read from files in the standard age format: a recipients file for
// encryption and an identities file for decryption. Only the side actually
// used needs to be configured — pushing a mirror requires no identity.
type AgeEncryptor struct {
	recipientPath string
	identityPath  string
}

// NewAgeEncryptor creates an AgeEncryptor reading keys from the given paths.
func NewAgeEncryptor(recipientPath, identityPath string) *AgeEncryptor {
	return &AgeEncryptor{
		recipientPath: recipientPath,
		identityPath:  identityPath,
	}
}

var _ Encryptor = (*AgeEncryptor)(nil)

// Encrypt reads plaintext from r and writes age-encrypted ciphertext to w
// using the configured recipients.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipients, err := e.loadRecipients()
	if err != nil {
		return fmt.Errorf("loading recipients: %w", err)
	}

	encWriter, err := age.Encrypt(w, recipients...)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return nil
}

// Decrypt reads age-encrypted ciphertext from r and writes plaintext to w
// using the configured identities.
func (e *AgeEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	identities, err := e.loadIdentities()
	if err != nil {
		return fmt.Errorf("loading identities: %w", err)
	}

	decReader, err := age.Decrypt(r, identities...)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}

	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}

	return nil
}

// loadRecipients reads and parses the recipients file.
func (e *AgeEncryptor) loadRecipients() ([]age.Recipient, error) {
	if e.recipientPath == "" {
		return nil, fmt.Errorf("no recipient file configured")
	}

	data, err := os.ReadFile(e.recipientPath)
	if err != nil {
		return nil, fmt.Errorf("reading recipient file: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing recipient file: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in %s", e.recipientPath)
	}

	return recipients, nil
}

// loadIdentities reads and parses the identities file.
func (e *AgeEncryptor) loadIdentities() ([]age.Identity, error) {
	if e.identityPath == "" {
		return nil, fmt.Errorf("no identity file configured")
	}

	data, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", e.identityPath)
	}

	return identities, nil
}

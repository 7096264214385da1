package library

type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

// Account is an opaque identity. In practice it is the hex pubkey that signed a command.
type Account = string

type Sha256 = string

// Shares is a quantity of ownership units.
type Shares = uint64

// Capital is a quantity of the collective's base currency.
type Capital = uint64

package anchor

// Root keys and chain codes, as published by the get_metadata() endpoint of
// the bridge canister in each environment. Every derived address depends on
// these values; change them only from a verified source.
const (
	// Canister 5okwm-giaaa-aaaar-qbn6a-cai.
	mainnetPublicKeyPEM = `
-----BEGIN PUBLIC KEY-----
MFYwEAYHKoZIzj0CAQYFK4EEAAoDQgAE4U7h8g/utxSXviWiwrZnQQ/FtNkAOkY8
9InghxAYPbxr+UexWfudSoJ9nE25xwme4Gi8DO4pDxyPDfIeFCzCNw==
-----END PUBLIC KEY-----
`
	mainnetChainCode = "0853741652c40fdc1a2cc29789f40ffe3dfbcb63a63dea746b405e20d8a81ea3"

	// Canister zvjow-lyaaa-aaaar-qap7q-cai.
	testnetPublicKeyPEM = `
-----BEGIN PUBLIC KEY-----
MFYwEAYHKoZIzj0CAQYFK4EEAAoDQgAEn3MobHw+HBvy6Y6UHJyZDP1W55Vow4K3
lz6RRtgI44HRuTpJAk2TmIaq50e8wFu1Byiwe89P09vUCh0jFOPBww==
-----END PUBLIC KEY-----
`
	testnetChainCode = "db0a0aea740ddb02af1e73550d693d88ec0290b65fe08eb031e3df1fb4301c76"

	// Canister 5okwm-giaaa-aaaar-qbn6a-cai running under dfx.
	localPublicKeyPEM = `
-----BEGIN PUBLIC KEY-----
MFYwEAYHKoZIzj0CAQYFK4EEAAoDQgAEgPOczsVDO2aWzmQCP5S3AcUGi+y3FxZJ
95zA/2J5noRLC4RJXw+S7RAMoG2Bvup7FcgIJi5R1wKhquilWh3eNw==
-----END PUBLIC KEY-----
`
	localChainCode = "70628cc337d33056c29f473dd91d1644a232ac16a8d1d87e0c524e0feafefb6c"
)

// BuiltinSources returns the compiled-in anchor sources for every environment.
func BuiltinSources() map[Environment]Source {
	return map[Environment]Source{
		Mainnet: {PublicKeyPEM: mainnetPublicKeyPEM, ChainCodeHex: mainnetChainCode},
		Testnet: {PublicKeyPEM: testnetPublicKeyPEM, ChainCodeHex: testnetChainCode},
		Local:   {PublicKeyPEM: localPublicKeyPEM, ChainCodeHex: localChainCode},
	}
}

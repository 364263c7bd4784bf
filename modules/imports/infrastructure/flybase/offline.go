package flybase

// seedStocks is a tiny sample of well-known stocks so that offline
// deployments and local development still exercise repository lookups.
var seedStocks = []Stock{
	{ExternalID: "5905", FlyBaseID: "FBst0005905", Genotype: "w[1118]", Species: "Dmel", StockType: "mutant stock", Collection: "Bloomington", Repository: "bdsc"},
	{ExternalID: "3605", FlyBaseID: "FBst0003605", Genotype: "w[1118]; Dr[1]/TM3, Sb[1]", Species: "Dmel", StockType: "balancer stock", Collection: "Bloomington", Repository: "bdsc"},
	{ExternalID: "458", FlyBaseID: "FBst0000458", Genotype: "P{w[+mC]=GAL4-elav.L}2/CyO", Species: "Dmel", StockType: "GAL4 driver", Collection: "Bloomington", Repository: "bdsc"},
	{ExternalID: "80563", FlyBaseID: "FBst0080563", Genotype: "w[*]; P{y[+t7.7] w[+mC]=20XUAS-IVS-GCaMP6f}attP40", Species: "Dmel", StockType: "transgenic stock", Collection: "Bloomington", Repository: "bdsc"},
	{ExternalID: "v10004", FlyBaseID: "FBst0471168", Genotype: "w[1118]; P{GD4136}v10004", Species: "Dmel", StockType: "RNAi stock", Collection: "Vienna", Repository: "vdrc"},
	{ExternalID: "108068", FlyBaseID: "FBst0303550", Genotype: "y[*] w[*]; P{w[+mC]=UAS-mCD8::GFP.L}LL5", Species: "Dmel", StockType: "transgenic stock", Collection: "Kyoto", Repository: "kyoto"},
}

// NewOfflineCatalog builds a catalog from the embedded seed data.
func NewOfflineCatalog() *Catalog {
	c := NewCatalog()
	c.Replace(seedStocks, "seed")
	return c
}

package microbiology

// OrganismCategory is the closed set of organism classes the coverage rules
// are keyed by. CategoryUnknown is a valid terminal value meaning "not enough
// information to rule on coverage", never an error.
type OrganismCategory string

const (
	CategoryMRSA        OrganismCategory = "MRSA"
	CategoryMSSA        OrganismCategory = "MSSA"
	CategoryVRE         OrganismCategory = "VRE"
	CategoryVSE         OrganismCategory = "VSE"
	CategoryPseudomonas OrganismCategory = "PSEUDOMONAS"
	CategoryCandida     OrganismCategory = "CANDIDA"
	CategoryGramNegSusc OrganismCategory = "GRAM_NEG_SUSCEPTIBLE"
	CategoryGPCClusters OrganismCategory = "GPC_CLUSTERS"
	CategoryGPCChains   OrganismCategory = "GPC_CHAINS"
	CategoryGNR         OrganismCategory = "GNR"
	CategoryUnknown     OrganismCategory = "UNKNOWN"
)

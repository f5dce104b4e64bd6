package simulate

import "github.com/okian/boothwise/internal/domain/model"

// DefaultCatalog is the booth catalog seeded before a run.
func DefaultCatalog() []model.Booth {
	return []model.Booth{
		{ID: "neuralworks", Name: "NeuralWorks", Description: "Applied machine learning for healthcare and robotics research",
			Tags: []string{"machine-learning", "ai", "healthcare"}, LookingFor: []string{"python", "pytorch", "statistics"}},
		{ID: "cloudforge", Name: "CloudForge", Description: "Managed kubernetes and developer platforms for startups",
			Tags: []string{"cloud", "kubernetes", "devops"}, LookingFor: []string{"go", "terraform", "linux"}},
		{ID: "ledgerly", Name: "Ledgerly", Description: "Payments infrastructure and fintech compliance tooling",
			Tags: []string{"fintech", "payments", "security"}, LookingFor: []string{"java", "sql", "go"}},
		{ID: "pixelpath", Name: "PixelPath", Description: "Design systems and accessible web products for education",
			Tags: []string{"design", "frontend", "edtech"}, LookingFor: []string{"typescript", "react", "figma"}},
		{ID: "greengrid", Name: "GreenGrid", Description: "Energy analytics for climate and sustainability teams",
			Tags: []string{"climate", "data", "iot"}, LookingFor: []string{"python", "sql", "embedded"}},
		{ID: "sentinel", Name: "Sentinel Labs", Description: "Offensive security research and cloud threat detection",
			Tags: []string{"security", "cloud", "research"}, LookingFor: []string{"rust", "go", "networking"}},
		{ID: "playbyte", Name: "PlayByte", Description: "Multiplayer games and realtime graphics for mobile",
			Tags: []string{"gaming", "graphics", "mobile"}, LookingFor: []string{"c++", "unity", "swift"}},
		{ID: "medisync", Name: "MediSync", Description: "Patient data platforms bridging healthcare and ai",
			Tags: []string{"healthcare", "data", "ai"}, LookingFor: []string{"sql", "python", "fhir"}},
		{ID: "robodyne", Name: "RoboDyne", Description: "Warehouse robotics with embedded vision systems",
			Tags: []string{"robotics", "hardware", "ai"}, LookingFor: []string{"c++", "ros", "embedded"}},
		{ID: "openstack-collective", Name: "Open Source Collective", Description: "Community maintained developer tooling and open source funding",
			Tags: []string{"open-source", "devops", "community"}, LookingFor: []string{"go", "rust", "writing"}},
		{ID: "quantia", Name: "Quantia", Description: "Quantitative research and fintech market data",
			Tags: []string{"fintech", "data", "research"}, LookingFor: []string{"python", "statistics", "c++"}},
		{ID: "learnloop", Name: "LearnLoop", Description: "Adaptive learning apps for edtech and mobile classrooms",
			Tags: []string{"edtech", "mobile", "ai"}, LookingFor: []string{"kotlin", "swift", "typescript"}},
	}
}

// interestPool holds interests visitors may mention. Some occur in booth
// descriptions and some do not.
var interestPool = []string{
	"healthcare", "robotics", "climate", "education", "security", "startups",
	"open source", "games", "research", "payments", "sustainability", "music",
}

package sources

import "fmt"

// DefaultSource — встроенные определения ролей.
//
// Всегда последний в fallback chain: файлы, БД и S3 приоритетнее.
type DefaultSource struct {
	prompts map[string]*PromptData
}

// NewDefaultSource создаёт источник со встроенными researcher и planner.
func NewDefaultSource() *DefaultSource {
	s := &DefaultSource{prompts: make(map[string]*PromptData)}
	s.AddPrompt("researcher", DefaultResearcher())
	s.AddPrompt("planner", DefaultPlanner())
	return s
}

// AddPrompt добавляет (или заменяет) встроенное определение.
func (s *DefaultSource) AddPrompt(id string, p *PromptData) {
	s.prompts[id] = p
}

// Load возвращает копию встроенного определения.
func (s *DefaultSource) Load(promptID string) (*PromptData, error) {
	p, ok := s.prompts[promptID]
	if !ok {
		return nil, fmt.Errorf("default prompt '%s': %w", promptID, ErrNotFound)
	}
	cp := *p
	cp.Instructions = append([]string(nil), p.Instructions...)
	return &cp, nil
}

// DefaultResearcher — роль, которая ищет в сети и отбирает результаты.
func DefaultResearcher() *PromptData {
	return &PromptData{
		Name: "Researcher",
		Role: "Searches for travel destinations, activities, and accommodations based on user preferences",
		Description: "You are a world-class travel researcher. Given a travel destination and the number of days the user wants to travel for, " +
			"generate a list of search terms for finding relevant travel activities and accommodations. " +
			"Then search the web for each term, analyze the results, and return the 10 most relevant results.",
		Instructions: []string{
			"Given a travel destination and the number of days the user wants to travel for, first generate a list of 3 search terms related to that destination and the number of days.",
			"For each search term, `search_google` and analyze the results.",
			"From the results of all searches, return the 10 most relevant results to the user's preferences.",
			"Remember: the quality of the results is important.",
		},
		AddDatetime: true,
		Metadata:    map[string]any{"source": "go-default", "version": "1.0"},
	}
}

// DefaultPlanner — роль, которая пишет маршрут по результатам исследования.
func DefaultPlanner() *PromptData {
	return &PromptData{
		Name: "Planner",
		Role: "Generates a draft itinerary based on user preferences and research results",
		Description: "You are a senior travel planner. Given a travel destination, the number of days the user wants to travel for, and a list of research results, " +
			"your goal is to generate a draft itinerary that meets the user's needs and preferences.",
		Instructions: []string{
			"Given a travel destination, the number of days the user wants to travel for, and a list of research results, generate a draft itinerary that includes suggested activities and accommodations.",
			"Ensure the itinerary is well-structured, informative, and engaging.",
			"Ensure you provide a nuanced and balanced itinerary, quoting facts where possible.",
			"Remember: the quality of the itinerary is important.",
			"Focus on clarity, coherence, and overall quality.",
			"Never make up facts or plagiarize. Always provide proper attribution.",
		},
		AddDatetime: true,
		Metadata:    map[string]any{"source": "go-default", "version": "1.0"},
	}
}

package signals

import "strings"

// Agent user-agent tokens recognized in robots.txt. Matching is
// case-insensitive on the User-agent value.
var (
	gptBotTokens    = []string{"gptbot", "oai-searchbot", "chatgpt-user"}
	claudeBotTokens = []string{"claudebot", "claude-web", "anthropic-ai"}
	agentAllowHints = []string{"gptbot", "claudebot", "oai-searchbot", "chatgpt-user", "claude-web", "perplexitybot", "google-extended"}
)

// robotsGroup is one User-agent block with its directives. A group can name
// several agents before its first directive.
type robotsGroup struct {
	agents     []string
	disallowed []string
	allowed    []string
}

// ParseRobots analyzes robots.txt content and fills the robots fields of
// acc. A blanket "User-agent: * / Disallow: /" sets RobotsBlocksAllBots;
// groups that leave known agent crawlers unblocked (or explicitly Allow
// them) set RobotsAllowsAgents. Content that fails to parse leaves the
// flags at their defaults.
func ParseRobots(content string, acc *Accessibility) {
	acc.RobotsTxtExists = true

	var groups []robotsGroup
	var current *robotsGroup

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			// A User-agent line after directives starts a new group.
			if current == nil || len(current.disallowed) > 0 || len(current.allowed) > 0 {
				groups = append(groups, robotsGroup{})
				current = &groups[len(groups)-1]
			}
			current.agents = append(current.agents, strings.ToLower(value))
		case "disallow":
			if current != nil {
				current.disallowed = append(current.disallowed, value)
			}
		case "allow":
			if current != nil {
				current.allowed = append(current.allowed, value)
			}
		}
	}

	for _, g := range groups {
		blocksRoot := false
		for _, d := range g.disallowed {
			if d == "/" {
				blocksRoot = true
			}
		}
		allowsSomething := false
		for _, a := range g.allowed {
			if a != "" {
				allowsSomething = true
			}
		}

		for _, agent := range g.agents {
			switch {
			case agent == "*":
				if blocksRoot {
					acc.RobotsBlocksAllBots = true
				}
			case matchesAny(agent, gptBotTokens):
				if blocksRoot {
					acc.RobotsBlocksGPTBot = true
				} else {
					acc.RobotsAllowsAgents = true
				}
			case matchesAny(agent, claudeBotTokens):
				if blocksRoot {
					acc.RobotsBlocksClaudeBot = true
				} else {
					acc.RobotsAllowsAgents = true
				}
			case matchesAny(agent, agentAllowHints):
				if !blocksRoot || allowsSomething {
					acc.RobotsAllowsAgents = true
				}
			}
		}
	}
}

func matchesAny(agent string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(agent, t) {
			return true
		}
	}
	return false
}

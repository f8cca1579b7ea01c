package prompt

import (
	"fmt"

	"github.com/bryanwahyu/threat-console/internal/domain/threat"
)

// Both templates ask for the score and level on their own lines using the
// marker literals threat.Parse extracts.
var (
	scoreLine = fmt.Sprintf("Format: %s: [number]", threat.ScoreMarker)
	levelLine = fmt.Sprintf("Classify as one of: CRITICAL, HIGH, MEDIUM, LOW, SAFE. Format: %s: [level]", threat.LevelMarker)
)

// Build returns the prompt for a subject. The output depends only on its
// inputs.
func Build(subject string, mode threat.Mode) string {
	if mode == threat.ModePassword {
		return passwordPrompt(subject)
	}
	return emailPrompt(subject)
}

func passwordPrompt(password string) string {
	return fmt.Sprintf(`You are a cybersecurity AI assistant specializing in password security analysis. Analyze the following password and provide a detailed security report.

Password: %q

Provide your analysis in this exact structure:

## Overall Assessment
Give a brief 1-2 sentence summary of the password's security posture.

## Threat Score
Provide a numeric score from 0-100 representing how DANGEROUS/INSECURE this password is (0=completely safe, 100=critically dangerous/easily guessed). %s

## Threat Level
%s

## Strength Analysis
- Length: Is it adequate? (minimum 12 chars recommended)
- Complexity: Use of uppercase, lowercase, numbers, symbols
- Entropy: Estimated bit entropy
- Pattern detection: Common patterns, keyboard walks, sequences
- Dictionary exposure: Likelihood this password appears in common wordlists

## Vulnerability Factors
List specific weaknesses found.

## Security Recommendations
Provide 3-5 specific actionable recommendations to improve this password.

Keep the response focused and professional. Do not include the actual password in your recommendations.`, password, scoreLine, levelLine)
}

func emailPrompt(content string) string {
	return fmt.Sprintf(`You are a cybersecurity AI assistant specializing in phishing and email threat detection. Analyze the following email content or subject line for signs of phishing, social engineering, or malicious intent.

Email Content/Subject: %q

Provide your analysis in this exact structure:

## Overall Assessment
Give a brief 1-2 sentence summary of the email's threat level.

## Threat Score
Provide a numeric score from 0-100 representing how DANGEROUS/SUSPICIOUS this email is (0=completely legitimate, 100=definite phishing/malicious). %s

## Threat Level
%s

## Phishing Indicators
- Urgency/Pressure tactics detected
- Impersonation attempts
- Suspicious request patterns (credentials, payments, links)
- Grammar and spelling issues
- Social engineering vectors

## Technical Risk Factors
- Potential malicious payloads or links
- Domain spoofing indicators
- Credential harvesting attempts

## Attack Classification
Identify the type of attack: (Spear Phishing / Business Email Compromise / Credential Harvesting / Malware Distribution / Other)

## Recommended Actions
Provide 3-5 specific actions the recipient should take.

Keep the response focused and professional.`, content, scoreLine, levelLine)
}

package generate

import (
	"fmt"
)

// buildResumePrompt creates the resume rewrite prompt.
func buildResumePrompt(req ResumeRequest) (prompt string) {
	prompt = fmt.Sprintf(`You are an expert resume writer. Generate a professional resume based on the following raw text.

Style: %s

Raw resume text:
%s

Generate a complete resume with:
1. Professional Summary (3-4 sentences)
2. Skills Section (organized by category)
3. Work Experience (with quantified bullet points)
4. Education
5. Achievements/Certifications (if applicable)

Format the output as a well-structured resume that can be displayed in HTML. Use clear sections and professional language.`,
		styleInstruction(req.Style), req.ResumeText)

	return prompt
}

// buildCoverLetterPrompt creates the cover letter prompt.
func buildCoverLetterPrompt(req CoverLetterRequest) (prompt string) {
	prompt = fmt.Sprintf(`Write a personalized cover letter for the following position:

Job Title: %s
Company: %s

Job Description:
%s

Applicant's Resume Summary:
%s

Tone: %s

Write a compelling cover letter that:
1. Addresses the hiring manager (use "Dear Hiring Manager" if no name is provided)
2. Highlights relevant experience from the resume
3. Shows understanding of the role and company
4. Demonstrates enthusiasm and fit
5. Includes a clear call to action

Keep it between 3-4 paragraphs.`,
		req.JobTitle, req.Company, req.JobDescription, req.ResumeText, toneInstruction(req.Tone))

	return prompt
}

// buildAnswerPrompt creates the prompt for a single application question.
func buildAnswerPrompt(req AnswerRequest) (prompt string) {
	prompt = fmt.Sprintf(`Answer the following application question:

Question: %s

Job Description:
%s

Applicant's Resume:
%s

Answer Format: %s

Generate a professional, relevant answer that demonstrates the applicant's qualifications and experience.`,
		req.Question, req.JobDescription, req.ResumeText, answerInstruction(req.AnswerType))

	return prompt
}

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - DocumentLoader: Loads raw documents from a directory
//   - TextExtractor: Extracts per-page text from a file (PDF)
//   - Splitter: Splits documents into bounded chunks
//   - EmbeddingService: Maps text to vectors
//   - VectorStore / VectorIndex: Named vector indexes with upsert and search
//   - LLMService: Hosted language model chat completion
//   - AnswerGenerator: Grounded answer from a question and context
//   - PromptStore: User-editable prompt templates
//   - AIConfigValidator: Connectivity checks for configured providers
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

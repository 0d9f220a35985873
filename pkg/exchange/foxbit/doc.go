// Package foxbit implements the Exchange interface for the Foxbit
// cryptocurrency exchange. It targets the REST v3 API.
//
// Foxbit API Documentation: https://docs.foxbit.com.br/rest/v3/
package foxbit
